package cms

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"scalesite/internal/domain/content"
	domainerr "scalesite/internal/domain/errors"
	"scalesite/internal/normalize"
)

// MaxReplyDepth is how deep a thread may nest: replies to top-level
// comments are allowed, replies to replies are not.
const MaxReplyDepth = 1

const maxCommentLength = 5000

type Comment struct {
	Variant    content.Variant `json:"contentType"`
	DocumentID string          `json:"content"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Body       string          `json:"body"`

	// ParentID is empty for top-level comments. ParentDepth is the depth of
	// the parent, 0 for a top-level comment. It is never read from the wire:
	// SubmitComment looks the parent up in the CMS.
	ParentID    string `json:"parent,omitempty"`
	ParentDepth int    `json:"-"`

	Reference string `json:"reference,omitempty"`
}

func (cm Comment) Validate() error {
	var ve domainerr.ValidationError
	if strings.TrimSpace(cm.DocumentID) == "" {
		ve.Add("content", "must not be empty")
	}
	if strings.TrimSpace(cm.Name) == "" {
		ve.Add("name", "must not be empty")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(cm.Email)); err != nil {
		ve.Add("email", "must be a valid email address")
	}
	body := strings.TrimSpace(cm.Body)
	if body == "" {
		ve.Add("body", "must not be empty")
	} else if len(body) > maxCommentLength {
		ve.Add("body", "is too long")
	}
	if cm.ParentID != "" && cm.ParentDepth+1 > MaxReplyDepth {
		ve.Add("parent", "replies to replies are not allowed")
	}
	if ve.HasAny() {
		return ve
	}
	return nil
}

// SubmitComment validates locally and posts the comment for moderation.
// It returns the reference id attached to the submission.
func (c *Client) SubmitComment(ctx context.Context, cm Comment) (string, error) {
	cm.ParentID = strings.TrimSpace(cm.ParentID)
	cm.ParentDepth = 0
	if err := cm.Validate(); err != nil {
		return "", err
	}
	if cm.ParentID != "" {
		depth, err := c.parentDepth(ctx, cm.ParentID)
		if err != nil {
			return "", err
		}
		cm.ParentDepth = depth
		if err := cm.Validate(); err != nil {
			return "", err
		}
	}
	cm.Name = strings.TrimSpace(cm.Name)
	cm.Email = strings.TrimSpace(cm.Email)
	cm.Body = strings.TrimSpace(cm.Body)
	if cm.Reference == "" {
		cm.Reference = uuid.NewString()
	}

	payload := map[string]any{
		"data": map[string]any{
			"content":     cm.DocumentID,
			"contentType": string(cm.Variant),
			"name":        cm.Name,
			"email":       cm.Email,
			"body":        cm.Body,
			"parent":      nullable(cm.ParentID),
			"reference":   cm.Reference,
		},
	}
	if err := c.do(ctx, http.MethodPost, "/api/comments", payload, nil); err != nil {
		return "", err
	}
	c.log.Info("comment submitted", zap.String("reference", cm.Reference), zap.String("content", cm.DocumentID))
	return cm.Reference, nil
}

// parentDepth reports how deep the comment id sits in its thread: 0 for a
// top-level comment, 1 for a reply.
func (c *Client) parentDepth(ctx context.Context, id string) (int, error) {
	path := "/api/comments/" + url.PathEscape(id) + "?populate[parent][fields][0]=id"
	var env map[string]any
	err := c.do(ctx, http.MethodGet, path, nil, &env)
	if errors.Is(err, ErrNotFound) || domainerr.IsStatus(err, http.StatusNotFound) {
		return 0, parentMissing()
	}
	if err != nil {
		return 0, err
	}
	rec, ok := normalize.Resolve(env)
	if !ok {
		return 0, parentMissing()
	}
	if p, ok := normalize.Resolve(rec.Attrs["parent"]); ok && (p.ID != 0 || len(p.Attrs) > 0) {
		return 1, nil
	}
	return 0, nil
}

func parentMissing() error {
	var ve domainerr.ValidationError
	ve.Add("parent", "comment not found")
	return ve
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
