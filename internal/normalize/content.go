package normalize

import (
	"scalesite/internal/domain/content"
)

type Options struct {
	// MediaBase prefixes relative media urls.
	MediaBase string
	// AuthorPlaceholder names authors that have data but no name.
	AuthorPlaceholder string
	// MaxDepth bounds related-item recursion. Zero means 1.
	MaxDepth int
}

func (o Options) placeholder() string {
	if o.AuthorPlaceholder != "" {
		return o.AuthorPlaceholder
	}
	return DefaultAuthorName
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return 1
	}
	return o.MaxDepth
}

// Content normalizes one raw record. An empty variant is taken from the
// record itself, falling back to blog.
func Content(raw any, variant content.Variant, opts Options) content.Content {
	rec, ok := Resolve(raw)
	if !ok {
		return emptyContent(variant)
	}
	return fromRecord(rec, variant, opts, opts.maxDepth())
}

func emptyContent(variant content.Variant) content.Content {
	if !variant.Valid() {
		variant = content.VariantBlog
	}
	return content.Content{
		Variant:    variant,
		Categories: []content.Category{},
		Tags:       []content.Tag{},
		Related:    []content.Content{},
	}
}

func fromRecord(rec Record, variant content.Variant, opts Options, depth int) content.Content {
	a := rec.Attrs
	if !variant.Valid() {
		variant, _ = content.ParseVariant(str(a, "variant"))
	}
	c := emptyContent(variant)
	info := c.Variant.Info()

	c.ID = rec.ID
	c.DocumentID = str(a, "documentId")
	c.Title = str(a, "title", "name")
	c.Slug = str(a, "slug")
	c.Excerpt = str(a, "excerpt", "summary", "description")
	c.Body = body(first(a, "content", "body"), opts.MediaBase)

	c.PublishedDate = parseTime(str(a, "publishedDate"))
	c.PublishedAt = parseTime(str(a, "publishedAt"))

	c.Banner = Media(first(a, "bannerImage", "banner"), opts.MediaBase)
	c.Featured = Media(first(a, "featuredImage", "featured_image"), opts.MediaBase)
	c.Thumbnail = Media(first(a, "thumbnailImage", "thumbnail"), opts.MediaBase)

	c.Author = Author(a["author"], opts)
	if c.Author == nil {
		c.Author = legacyAuthor(a, opts)
	}

	c.IsFeatured = boolOf(first(a, "featured", "isFeatured"))
	c.ViewCount = intOf(first(a, "viewCount", "views"))
	c.ReadTime = optInt(first(a, "readTime", "readingTime"))

	c.EventDate = parseTime(str(a, "eventDate", "startDate"))
	c.EventEndDate = parseTime(str(a, "eventEndDate", "endDate"))
	c.Location = str(a, "location", "venue")
	c.Type = str(a, "type", "eventType")

	c.Categories = Categories(first(a, "categories", "category"))
	c.Tags = Tags(a["tags"])

	if depth > 0 {
		for _, r := range ResolveList(first(a, "relatedItems", info.RelatedField)) {
			c.Related = append(c.Related, fromRecord(r, c.Variant, opts, depth-1))
		}
	}
	return c
}

func body(v any, base string) content.Body {
	switch t := v.(type) {
	case string:
		if t == "" {
			return content.Body{}
		}
		return content.Body{Format: content.BodyMarkdown, Markdown: t}
	case []any:
		bs := blocks(t, base)
		if len(bs) == 0 {
			return content.Body{}
		}
		return content.Body{Format: content.BodyBlocks, Blocks: bs}
	}
	return content.Body{}
}

// blocks reads a blocks editor tree field by field; a mistyped field falls
// back to its zero value instead of losing the body.
func blocks(nodes []any, base string) []content.Block {
	out := make([]content.Block, 0, len(nodes))
	for _, n := range nodes {
		m, ok := n.(map[string]any)
		if !ok {
			continue
		}
		text, _ := m["text"].(string)
		b := content.Block{
			Type:          str(m, "type"),
			Level:         intOf(m["level"]),
			Format:        str(m, "format"),
			URL:           str(m, "url"),
			Image:         Media(m["image"], base),
			Text:          text,
			Bold:          boolOf(m["bold"]),
			Italic:        boolOf(m["italic"]),
			Underline:     boolOf(m["underline"]),
			Strikethrough: boolOf(m["strikethrough"]),
			Code:          boolOf(m["code"]),
		}
		if children, ok := m["children"].([]any); ok {
			b.Children = blocks(children, base)
		}
		out = append(out, b)
	}
	return out
}

// Page decodes a `{data, meta: {pagination}}` envelope.
func Page(v any, variant content.Variant, opts Options) content.Page {
	m, _ := asMap(v)
	items := make([]content.Content, 0)
	for _, rec := range ResolveList(m["data"]) {
		items = append(items, fromRecord(rec, variant, opts, opts.maxDepth()))
	}
	var meta map[string]any
	if mm, ok := m["meta"].(map[string]any); ok {
		meta, _ = mm["pagination"].(map[string]any)
	}
	return content.Page{Items: items, Pagination: pagination(meta, len(items))}
}

// pagination accepts page-based and offset-based meta. Without meta the
// returned items are treated as the only page.
func pagination(meta map[string]any, n int) content.Pagination {
	if meta == nil {
		p := content.Pagination{Page: 1, PageSize: n, Total: n}
		if n > 0 {
			p.PageCount = 1
		}
		return p
	}
	p := content.Pagination{
		Page:      intOf(meta["page"]),
		PageSize:  intOf(meta["pageSize"]),
		PageCount: intOf(meta["pageCount"]),
		Total:     intOf(meta["total"]),
	}
	if limit := intOf(meta["limit"]); p.PageSize == 0 && limit > 0 {
		p.PageSize = limit
		p.Page = intOf(meta["start"])/limit + 1
		p.PageCount = (p.Total + limit - 1) / limit
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	return p
}
