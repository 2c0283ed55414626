package normalize

import (
	"encoding/json"
	"reflect"
	"testing"

	"scalesite/internal/domain/content"
)

const base = "https://cms.example.edu"

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return v
}

func TestMediaMalformedIsNil(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"null", `null`},
		{"missing url", `{"id": 3, "mime": "image/png"}`},
		{"wrapped without url", `{"data": {"id": 3, "attributes": {"name": "x.png"}}}`},
		{"data null", `{"data": null}`},
		{"data array", `{"data": [{"id": 1, "attributes": {"url": "/a.png"}}]}`},
		{"string", `"https://cdn.example.edu/a.png"`},
		{"number", `42`},
		{"empty object", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Media(decode(t, tt.in), base); got != nil {
				t.Fatalf("Media(%s) = %+v, want nil", tt.in, got)
			}
		})
	}
	if got := Media(nil, base); got != nil {
		t.Fatalf("Media(nil) = %+v", got)
	}
}

func TestMediaWrappedPrefersOuterID(t *testing.T) {
	in := decode(t, `{"data": {"id": 7, "attributes": {"id": 99, "url": "/uploads/banner.jpg", "name": "banner.jpg",
		"mime": "image/jpeg", "size": 12.5, "alternativeText": "Campus", "width": 1200, "height": 600,
		"formats": {"small": {"url": "/uploads/small_banner.jpg", "width": 500, "height": 250}}}}}`)

	got := Media(in, base)
	if got == nil {
		t.Fatal("expected media")
	}
	if got.ID != 7 {
		t.Fatalf("id = %d, want 7", got.ID)
	}
	if got.URL != base+"/uploads/banner.jpg" {
		t.Fatalf("url = %q", got.URL)
	}
	if got.AltText != "Campus" || got.Width != 1200 || got.Height != 600 || got.Size != 12.5 {
		t.Fatalf("unexpected descriptor: %+v", got)
	}
	if f, ok := got.Formats["small"]; !ok || f.URL != base+"/uploads/small_banner.jpg" {
		t.Fatalf("formats = %+v", got.Formats)
	}
}

func TestMediaFlatKeepsAbsoluteURL(t *testing.T) {
	in := decode(t, `{"id": 2, "url": "https://cdn.example.edu/x.png", "mime": "image/png", "altText": "X"}`)
	got := Media(in, base)
	if got == nil || got.URL != "https://cdn.example.edu/x.png" || got.AltText != "X" || got.ID != 2 {
		t.Fatalf("unexpected: %+v", got)
	}
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		u, base, want string
	}{
		{"/uploads/a.png", "https://cms.example.edu/", "https://cms.example.edu/uploads/a.png"},
		{"uploads/a.png", "https://cms.example.edu", "https://cms.example.edu/uploads/a.png"},
		{"https://cdn.example.edu/a.png", "https://cms.example.edu", "https://cdn.example.edu/a.png"},
		{"/a.png", "", "/a.png"},
		{"", "https://cms.example.edu", ""},
	}
	for _, tt := range tests {
		if got := AbsoluteURL(tt.u, tt.base); got != tt.want {
			t.Errorf("AbsoluteURL(%q, %q) = %q, want %q", tt.u, tt.base, got, tt.want)
		}
	}
}

func TestAuthorLegacyKeys(t *testing.T) {
	in := decode(t, `{"authorName": "X", "authorRole": "Dean", "authorBio": "Bio", "authorLinkedin": "in/x",
		"authorTwitter": "@x", "authorEmail": "x@example.edu"}`)
	got := Author(in, Options{})
	want := &content.Author{Name: "X", Role: "Dean", Bio: "Bio", LinkedIn: "in/x", Twitter: "@x", Email: "x@example.edu"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Author = %+v, want %+v", got, want)
	}
}

func TestAuthorForms(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *content.Author
	}{
		{"nil", nil, nil},
		{"blank string", "  ", nil},
		{"string", "Dr. Rao", &content.Author{Name: "Dr. Rao"}},
		{"empty object", map[string]any{}, nil},
		{"primary wins", map[string]any{"name": "A", "authorName": "B"}, &content.Author{Name: "A"}},
		{"no name gets placeholder", map[string]any{"bio": "Writes things"}, &content.Author{Name: "Sona Author", Bio: "Writes things"}},
		{"wrapped", map[string]any{"data": map[string]any{"id": 4.0, "attributes": map[string]any{"name": "W"}}}, &content.Author{Name: "W"}},
	}
	opts := Options{AuthorPlaceholder: "Sona Author"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Author(tt.in, opts); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Author(%v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAuthorDefaultPlaceholder(t *testing.T) {
	got := Author(map[string]any{"role": "Faculty"}, Options{})
	if got == nil || got.Name != DefaultAuthorName {
		t.Fatalf("got %+v", got)
	}
}

func TestContentAuthorFallsBackToRecord(t *testing.T) {
	raw := decode(t, `{"id": 1, "title": "Legacy", "slug": "legacy", "authorName": "Old Style", "authorBio": "flat"}`)
	c := Content(raw, content.VariantBlog, Options{})
	if c.Author == nil || c.Author.Name != "Old Style" || c.Author.Bio != "flat" {
		t.Fatalf("author = %+v", c.Author)
	}

	none := Content(decode(t, `{"id": 2, "title": "No author", "slug": "none"}`), content.VariantBlog, Options{})
	if none.Author != nil {
		t.Fatalf("expected nil author, got %+v", none.Author)
	}
}

func TestContentDefaults(t *testing.T) {
	c := Content(decode(t, `{"id": 5, "title": "Bare"}`), content.VariantEvent, Options{})
	if c.Categories == nil || c.Tags == nil || c.Related == nil {
		t.Fatal("slices must never be nil")
	}
	if c.ViewCount != 0 || c.ReadTime != nil {
		t.Fatalf("viewCount=%d readTime=%v", c.ViewCount, c.ReadTime)
	}
	if c.Variant != content.VariantEvent {
		t.Fatalf("variant = %q", c.Variant)
	}

	bad := Content(decode(t, `"not a record"`), content.VariantBlog, Options{})
	if bad.Categories == nil || bad.Related == nil || bad.ID != 0 {
		t.Fatalf("malformed record should give empty content: %+v", bad)
	}
}

func TestContentRelatedDepthCapped(t *testing.T) {
	raw := decode(t, `{
		"id": 1, "title": "Root", "slug": "root",
		"relatedBlogs": {"data": [
			{"id": 2, "attributes": {"title": "Child", "slug": "child",
				"relatedBlogs": {"data": [{"id": 1, "attributes": {"title": "Root", "slug": "root"}}]}}}
		]}
	}`)
	c := Content(raw, content.VariantBlog, Options{})
	if len(c.Related) != 1 || c.Related[0].Slug != "child" {
		t.Fatalf("related = %+v", c.Related)
	}
	if c.Related[0].Related == nil || len(c.Related[0].Related) != 0 {
		t.Fatalf("nested related must be empty, got %+v", c.Related[0].Related)
	}
}

func TestContentStrapiV4Record(t *testing.T) {
	raw := decode(t, `{
		"id": 10,
		"attributes": {
			"documentId": "doc10", "title": "Robotics Lab Opens", "slug": "robotics-lab-opens",
			"excerpt": "A new lab.", "content": "# Heading\n\nBody", "publishedDate": "2024-03-01",
			"publishedAt": "2024-03-01T09:30:00.000Z", "featured": true, "viewCount": "42", "readTime": "5 min",
			"bannerImage": {"data": {"id": 3, "attributes": {"url": "/uploads/lab.jpg", "mime": "image/jpeg"}}},
			"author": {"data": {"id": 8, "attributes": {"name": "Priya", "designation": "Editor"}}},
			"categories": {"data": [{"id": 1, "attributes": {"name": "News", "slug": "news"}},
				{"id": 2, "attributes": {"slug": "campus-life"}}]},
			"tags": [{"id": 4, "name": "AI", "slug": "ai"}, {"id": 5, "name": "AI", "slug": "ai"}]
		}
	}`)
	c := Content(raw, content.VariantBlog, Options{MediaBase: base})

	if c.ID != 10 || c.DocumentID != "doc10" || c.Slug != "robotics-lab-opens" {
		t.Fatalf("identity: %+v", c)
	}
	if c.Body.Format != content.BodyMarkdown {
		t.Fatalf("body format = %q", c.Body.Format)
	}
	if c.PublishedDate.Format("2006-01-02") != "2024-03-01" {
		t.Fatalf("publishedDate = %v", c.PublishedDate)
	}
	if !c.IsFeatured || c.ViewCount != 42 || c.ReadTime == nil || *c.ReadTime != 5 {
		t.Fatalf("featured=%v views=%d readTime=%v", c.IsFeatured, c.ViewCount, c.ReadTime)
	}
	if c.Banner == nil || c.Banner.URL != base+"/uploads/lab.jpg" {
		t.Fatalf("banner = %+v", c.Banner)
	}
	if c.Author == nil || c.Author.Name != "Priya" || c.Author.Role != "Editor" {
		t.Fatalf("author = %+v", c.Author)
	}
	if len(c.Categories) != 2 || c.Categories[1].Name != "Campus Life" {
		t.Fatalf("categories = %+v", c.Categories)
	}
	if len(c.Tags) != 1 {
		t.Fatalf("tags should be unique by slug: %+v", c.Tags)
	}
}

func TestContentBlocksBody(t *testing.T) {
	raw := decode(t, `{"id": 1, "content": [{"type": "paragraph", "children": [{"type": "text", "text": "Hi", "bold": true}]}]}`)
	c := Content(raw, content.VariantBlog, Options{})
	if c.Body.Format != content.BodyBlocks || len(c.Body.Blocks) != 1 {
		t.Fatalf("body = %+v", c.Body)
	}
	if leaf := c.Body.Blocks[0].Children[0]; leaf.Text != "Hi" || !leaf.Bold {
		t.Fatalf("leaf = %+v", leaf)
	}
}

func TestContentIdempotent(t *testing.T) {
	fixtures := []string{
		`{"id": 10, "attributes": {"documentId": "d", "title": "T", "slug": "t", "excerpt": "E",
			"content": [{"type": "heading", "level": 2, "children": [{"type": "text", "text": "H"}]}],
			"publishedDate": "2024-03-01", "publishedAt": "2024-03-01T09:30:00.123+05:30",
			"thumbnailImage": {"data": {"id": 3, "attributes": {"url": "/t.jpg", "mime": "image/jpeg", "size": 3.2,
				"formats": {"thumb": {"url": "/th_t.jpg", "width": 100}}}}},
			"authorName": "Legacy", "authorImage": {"url": "/a.png", "mime": "image/png"},
			"viewCount": 3, "readTime": 7,
			"categories": {"data": [{"id": 1, "attributes": {"slug": "news"}}]},
			"relatedBlogs": {"data": [{"id": 11, "attributes": {"title": "R", "slug": "r",
				"relatedBlogs": {"data": [{"id": 10, "attributes": {"title": "T"}}]}}}]}}}`,
		`{"id": 3, "title": "Open Day", "slug": "open-day", "eventDate": "2025-01-10T10:00:00Z",
			"featuredImage": {"url": "https://cdn.example.edu/o.png", "mime": "image/png"},
			"author": {"bio": "only bio"}, "location": "Main Hall", "type": "workshop", "content": "Hello"}`,
	}
	for i, fx := range fixtures {
		opts := Options{MediaBase: base, AuthorPlaceholder: "SCALE Author"}
		once := Content(decode(t, fx), "", opts)

		b, err := json.Marshal(once)
		if err != nil {
			t.Fatal(err)
		}
		twice := Content(decode(t, string(b)), "", opts)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("fixture %d not idempotent:\nonce:  %+v\ntwice: %+v", i, once, twice)
		}

		// a typed record is accepted directly as well
		if direct := Content(once, "", opts); !reflect.DeepEqual(once, direct) {
			t.Fatalf("fixture %d not idempotent for typed input", i)
		}
	}
}

func TestPage(t *testing.T) {
	env := decode(t, `{"data": [{"id": 1, "attributes": {"title": "A"}}, {"id": 2, "title": "B"}],
		"meta": {"pagination": {"page": 1, "pageSize": 2, "pageCount": 3, "total": 6}}}`)
	p := Page(env, content.VariantBlog, Options{})
	if len(p.Items) != 2 || p.Items[1].Title != "B" {
		t.Fatalf("items = %+v", p.Items)
	}
	if !p.Pagination.HasNextPage() {
		t.Fatalf("page 1 of 3 should have a next page")
	}

	last := content.Pagination{Page: 3, PageCount: 3}
	if last.HasNextPage() {
		t.Fatalf("page 3 of 3 should not have a next page")
	}
}

func TestPageEmptyAndOffsetMeta(t *testing.T) {
	empty := Page(decode(t, `{"data": [], "meta": {"pagination": {"page": 1, "pageSize": 9, "pageCount": 0, "total": 0}}}`), content.VariantBlog, Options{})
	if empty.Items == nil || len(empty.Items) != 0 || empty.Pagination.Total != 0 || empty.Pagination.HasNextPage() {
		t.Fatalf("empty page = %+v", empty)
	}

	offset := Page(decode(t, `{"data": [{"id": 1}], "meta": {"pagination": {"start": 10, "limit": 5, "total": 21}}}`), content.VariantBlog, Options{})
	want := content.Pagination{Page: 3, PageSize: 5, PageCount: 5, Total: 21}
	if offset.Pagination != want {
		t.Fatalf("offset pagination = %+v, want %+v", offset.Pagination, want)
	}

	noMeta := Page(decode(t, `{"data": [{"id": 1}, {"id": 2}]}`), content.VariantBlog, Options{})
	if noMeta.Pagination != (content.Pagination{Page: 1, PageSize: 2, PageCount: 1, Total: 2}) {
		t.Fatalf("derived pagination = %+v", noMeta.Pagination)
	}

	garbage := Page(decode(t, `[1, 2]`), content.VariantBlog, Options{})
	if garbage.Items == nil || len(garbage.Items) != 0 {
		t.Fatalf("garbage envelope should give empty items")
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Industry News":   "industry-news",
		"  AI & Robotics ": "ai-robotics",
		"":                "",
		"--x--":           "x",
	}
	for in, want := range tests {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContentBlockImagesAreNormalized(t *testing.T) {
	raw := decode(t, `{"id": 1, "content": [
		{"type": "heading", "level": "2", "children": [{"type": "text", "text": " Lab "}]},
		{"type": "image", "image": {"url": "/uploads/lab.jpg", "mime": "image/jpeg", "alternativeText": "Robotics lab", "width": 800}},
		{"type": "paragraph", "children": [{"type": "text", "text": "ok", "bold": "yes"}]}
	]}`)
	c := Content(raw, content.VariantBlog, Options{MediaBase: base})
	if c.Body.Format != content.BodyBlocks || len(c.Body.Blocks) != 3 {
		t.Fatalf("body = %+v", c.Body)
	}
	if h := c.Body.Blocks[0]; h.Level != 2 || h.Children[0].Text != " Lab " {
		t.Fatalf("heading = %+v", h)
	}
	img := c.Body.Blocks[1].Image
	if img == nil || img.URL != base+"/uploads/lab.jpg" || img.AltText != "Robotics lab" || img.Width != 800 {
		t.Fatalf("image = %+v", img)
	}
	if leaf := c.Body.Blocks[2].Children[0]; leaf.Text != "ok" || leaf.Bold {
		t.Fatalf("leaf = %+v", leaf)
	}
}

func TestAuthorImageURLString(t *testing.T) {
	rec := decode(t, `{"id": 3, "title": "T", "authorName": "Meera", "authorImage": "/uploads/meera.png"}`)
	c := Content(rec, content.VariantBlog, Options{MediaBase: base})
	if c.Author == nil || c.Author.Image == nil || c.Author.Image.URL != base+"/uploads/meera.png" {
		t.Fatalf("author = %+v", c.Author)
	}

	again := Content(roundTrip(t, c), content.VariantBlog, Options{MediaBase: base})
	if !reflect.DeepEqual(again.Author, c.Author) {
		t.Fatalf("author changed on renormalize: %+v vs %+v", again.Author, c.Author)
	}
}

func roundTrip(t *testing.T, c content.Content) any {
	t.Helper()
	raw, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	return decode(t, string(raw))
}
