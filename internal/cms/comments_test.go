package cms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"scalesite/internal/domain/content"
	domainerr "scalesite/internal/domain/errors"
)

func validComment() Comment {
	return Comment{
		Variant:    content.VariantBlog,
		DocumentID: "doc1",
		Name:       "Asha",
		Email:      "asha@example.edu",
		Body:       "Great read.",
	}
}

func TestCommentReplyDepth(t *testing.T) {
	top := validComment()
	if err := top.Validate(); err != nil {
		t.Fatalf("top-level comment rejected: %v", err)
	}

	reply := validComment()
	reply.ParentID = "c1"
	reply.ParentDepth = 0
	if err := reply.Validate(); err != nil {
		t.Fatalf("reply to a top-level comment rejected: %v", err)
	}

	nested := validComment()
	nested.ParentID = "c2"
	nested.ParentDepth = 1
	err := nested.Validate()
	if !errors.Is(err, domainerr.ErrInvalid) {
		t.Fatalf("reply to a reply should be invalid, got %v", err)
	}
	var ve domainerr.ValidationError
	if !errors.As(err, &ve) || ve.Fields()["parent"] == "" {
		t.Fatalf("expected parent field error, got %v", err)
	}
}

func TestCommentValidateFields(t *testing.T) {
	err := Comment{Email: "nope"}.Validate()
	var ve domainerr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := ve.Fields()
	for _, f := range []string{"content", "name", "email", "body"} {
		if fields[f] == "" {
			t.Errorf("missing error for %s", f)
		}
	}
}

func TestSubmitComment(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/comments" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, 200, map[string]any{"data": map[string]any{"id": 1}})
	})

	ref, err := c.SubmitComment(context.Background(), validComment())
	if err != nil {
		t.Fatal(err)
	}
	if ref == "" {
		t.Fatal("expected a reference id")
	}
	data, _ := got["data"].(map[string]any)
	if data["reference"] != ref || data["contentType"] != "blog" || data["parent"] != nil {
		t.Fatalf("payload = %v", got)
	}
}

func TestSubmitCommentInvalidSkipsNetwork(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	if _, err := c.SubmitComment(context.Background(), Comment{}); err == nil {
		t.Fatal("expected validation error")
	}
	if called {
		t.Fatal("invalid comment must not reach the CMS")
	}
}

// commentCMS serves parent lookups from parents (id -> parent id, "" for a
// top-level comment) and records posted comments.
func commentCMS(t *testing.T, parents map[string]string, posted *[]map[string]any) *Client {
	t.Helper()
	return newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/comments/"):
			id := strings.TrimPrefix(r.URL.Path, "/api/comments/")
			parent, ok := parents[id]
			if !ok {
				writeJSON(w, 404, map[string]any{"data": nil, "error": map[string]any{"status": 404, "message": "Not Found"}})
				return
			}
			var p any = map[string]any{"data": nil}
			if parent != "" {
				p = map[string]any{"data": map[string]any{"id": 9, "attributes": map[string]any{"documentId": parent}}}
			}
			writeJSON(w, 200, map[string]any{"data": map[string]any{"id": 3, "attributes": map[string]any{"parent": p}}})
		case r.Method == http.MethodPost && r.URL.Path == "/api/comments":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			*posted = append(*posted, body)
			writeJSON(w, 200, map[string]any{"data": map[string]any{"id": 1}})
		default:
			http.NotFound(w, r)
		}
	})
}

func TestSubmitCommentLooksUpParentDepth(t *testing.T) {
	var posted []map[string]any
	c := commentCMS(t, map[string]string{"top": "", "reply": "top"}, &posted)

	reply := validComment()
	reply.ParentID = "top"
	if _, err := c.SubmitComment(context.Background(), reply); err != nil {
		t.Fatalf("reply to top-level comment: %v", err)
	}

	nested := validComment()
	nested.ParentID = "reply"
	nested.ParentDepth = 0
	_, err := c.SubmitComment(context.Background(), nested)
	var ve domainerr.ValidationError
	if !errors.As(err, &ve) || ve.Fields()["parent"] == "" {
		t.Fatalf("reply to a reply should be refused, got %v", err)
	}

	missing := validComment()
	missing.ParentID = "gone"
	if _, err := c.SubmitComment(context.Background(), missing); !errors.As(err, &ve) {
		t.Fatalf("unknown parent should be a validation error, got %v", err)
	}

	if len(posted) != 1 {
		t.Fatalf("posted = %d, want only the valid reply", len(posted))
	}
	data, _ := posted[0]["data"].(map[string]any)
	if data["parent"] != "top" {
		t.Fatalf("payload = %v", posted[0])
	}
}

func TestCommentDepthIgnoredOnTheWire(t *testing.T) {
	cm := Comment{ParentDepth: 1}
	if err := json.Unmarshal([]byte(`{"parent":"c1","parentDepth":0}`), &cm); err != nil {
		t.Fatal(err)
	}
	if cm.ParentDepth != 1 {
		t.Fatal("parentDepth must not be decoded")
	}
}
