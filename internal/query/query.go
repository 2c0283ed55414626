// Package query builds Strapi filter, populate, sort and pagination query
// strings. Builders are pure: identical requests give identical strings.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"scalesite/internal/domain/content"
)

const (
	DefaultPageSize = 9
	MaxPageSize     = 100
)

type Filters struct {
	CategorySlug string
	TagSlug      string
	Slug         string
	ExcludeID    int
	Search       string
	Type         string
}

type Request struct {
	Variant  content.Variant
	Page     int
	PageSize int
	Filters  Filters
}

// imageFields bounds every populated media relation.
var imageFields = []string{"url", "alternativeText", "width", "height", "mime"}

var taxonomyFields = []string{"name", "slug"}

type relations struct {
	media       []string
	author      bool
	relatedRefs []string
}

var populate = map[content.Variant]relations{
	content.VariantBlog: {
		media:       []string{"bannerImage", "thumbnailImage"},
		author:      true,
		relatedRefs: []string{"title", "slug", "excerpt", "publishedDate"},
	},
	content.VariantEvent: {
		media:       []string{"featuredImage", "thumbnailImage"},
		relatedRefs: []string{"title", "slug", "excerpt", "eventDate"},
	},
	content.VariantCaseStudy: {
		media:       []string{"bannerImage", "thumbnailImage"},
		author:      true,
		relatedRefs: []string{"title", "slug", "excerpt", "publishedDate"},
	},
}

func normalizePaging(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// Normalized trims filters and clamps paging.
func (r Request) Normalized() Request {
	if !r.Variant.Valid() {
		r.Variant = content.VariantBlog
	}
	r.Page, r.PageSize = normalizePaging(r.Page, r.PageSize)
	f := &r.Filters
	f.CategorySlug = strings.TrimSpace(f.CategorySlug)
	f.TagSlug = strings.TrimSpace(f.TagSlug)
	f.Slug = strings.TrimSpace(f.Slug)
	f.Search = strings.TrimSpace(f.Search)
	f.Type = strings.TrimSpace(f.Type)
	if f.ExcludeID < 0 {
		f.ExcludeID = 0
	}
	return r
}

// WithPage returns a copy of r for another page.
func (r Request) WithPage(page int) Request {
	r.Page = page
	return r
}

// Key identifies the result set regardless of page.
func (r Request) Key() string {
	r = r.Normalized()
	r.Page = 1
	return string(r.Variant) + "?" + Build(r)
}

// Build serializes r into a Strapi query string. Keys keep their brackets,
// values are escaped. Parameter order: filters, populate, sort, pagination.
func Build(r Request) string {
	r = r.Normalized()
	info := r.Variant.Info()
	var p params

	f := r.Filters
	if f.Slug != "" {
		p.add("filters[slug][$eq]", f.Slug)
	}
	if f.ExcludeID > 0 {
		p.add("filters[id][$ne]", strconv.Itoa(f.ExcludeID))
	}
	if f.CategorySlug != "" {
		p.add("filters[categories][slug][$eq]", f.CategorySlug)
	}
	if f.TagSlug != "" {
		p.add("filters[tags][slug][$eq]", f.TagSlug)
	}
	if f.Type != "" {
		p.add("filters[type][$eq]", f.Type)
	}
	if f.Search != "" {
		fields := []string{"title", "excerpt"}
		if info.SearchContent {
			fields = append(fields, "content")
		}
		for i, field := range fields {
			p.add("filters[$or]["+strconv.Itoa(i)+"]["+field+"][$containsi]", f.Search)
		}
	}

	rel := populate[r.Variant]
	for _, media := range rel.media {
		p.addList("populate["+media+"][fields]", imageFields)
	}
	if rel.author {
		p.addList("populate[author][populate][image][fields]", imageFields)
	}
	p.addList("populate[categories][fields]", taxonomyFields)
	p.addList("populate[tags][fields]", taxonomyFields)
	if info.RelatedField != "" {
		p.addList("populate["+info.RelatedField+"][fields]", rel.relatedRefs)
		p.addList("populate["+info.RelatedField+"][populate][thumbnailImage][fields]", imageFields)
	}

	p.add("sort[0]", info.DateField+":desc")
	p.add("sort[1]", "publishedAt:desc")

	p.add("pagination[page]", strconv.Itoa(r.Page))
	p.add("pagination[pageSize]", strconv.Itoa(r.PageSize))
	return p.encode()
}

// Taxonomy builds the listing query for categories or tags.
func Taxonomy(page, pageSize int) string {
	page, pageSize = normalizePaging(page, pageSize)
	var p params
	p.add("sort[0]", "name:asc")
	p.add("pagination[page]", strconv.Itoa(page))
	p.add("pagination[pageSize]", strconv.Itoa(pageSize))
	return p.encode()
}

// FromValues reads list parameters as accepted by the public API.
func FromValues(v url.Values, variant content.Variant, defaultSize int) Request {
	atoi := func(key string) int {
		n, _ := strconv.Atoi(strings.TrimSpace(v.Get(key)))
		return n
	}
	r := Request{
		Variant:  variant,
		Page:     atoi("page"),
		PageSize: atoi("pageSize"),
		Filters: Filters{
			CategorySlug: v.Get("category"),
			TagSlug:      v.Get("tag"),
			Slug:         v.Get("slug"),
			ExcludeID:    atoi("exclude"),
			Search:       v.Get("search"),
			Type:         v.Get("type"),
		},
	}
	if r.PageSize <= 0 {
		r.PageSize = defaultSize
	}
	return r.Normalized()
}

type param struct {
	key   string
	value string
}

type params []param

func (p *params) add(key, value string) {
	*p = append(*p, param{key: key, value: value})
}

func (p *params) addList(prefix string, values []string) {
	for i, v := range values {
		p.add(prefix+"["+strconv.Itoa(i)+"]", v)
	}
}

func (p params) encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(kv.key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.value))
	}
	return b.String()
}
