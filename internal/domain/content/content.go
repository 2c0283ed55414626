package content

import (
	"strings"
	"time"
)

type Variant string

const (
	VariantBlog      Variant = "blog"
	VariantEvent     Variant = "event"
	VariantCaseStudy Variant = "case-study"
)

// VariantInfo describes where a variant lives in the CMS and which of its
// fields drive sorting, search and relations.
type VariantInfo struct {
	Collection    string
	DateField     string
	RelatedField  string
	MediaFields   []string
	SearchContent bool
}

var variants = map[Variant]VariantInfo{
	VariantBlog: {
		Collection:   "blogs",
		DateField:    "publishedDate",
		RelatedField: "relatedBlogs",
		MediaFields:  []string{"bannerImage", "thumbnailImage"},
	},
	VariantEvent: {
		Collection:   "events",
		DateField:    "eventDate",
		RelatedField: "relatedEvents",
		MediaFields:  []string{"featuredImage", "thumbnailImage"},
	},
	VariantCaseStudy: {
		Collection:    "case-studies",
		DateField:     "publishedDate",
		RelatedField:  "relatedCaseStudies",
		MediaFields:   []string{"bannerImage", "thumbnailImage"},
		SearchContent: true,
	},
}

// Variants lists every content type in a stable order.
func Variants() []Variant {
	return []Variant{VariantBlog, VariantEvent, VariantCaseStudy}
}

func (v Variant) Info() VariantInfo {
	if info, ok := variants[v]; ok {
		return info
	}
	return variants[VariantBlog]
}

func (v Variant) Valid() bool {
	_, ok := variants[v]
	return ok
}

// ParseVariant accepts either the variant name or its collection path.
func ParseVariant(s string) (Variant, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for v, info := range variants {
		if s == string(v) || s == info.Collection {
			return v, true
		}
	}
	return "", false
}

// Content is the normalized view-model for a blog, event or case study.
// Slices are never nil.
type Content struct {
	ID         int     `json:"id"`
	DocumentID string  `json:"documentId,omitempty"`
	Variant    Variant `json:"variant"`

	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Excerpt string `json:"excerpt"`
	Body    Body   `json:"content"`

	PublishedDate time.Time `json:"publishedDate,omitzero"`
	PublishedAt   time.Time `json:"publishedAt,omitzero"`

	Banner    *Media `json:"bannerImage,omitempty"`
	Featured  *Media `json:"featuredImage,omitempty"`
	Thumbnail *Media `json:"thumbnailImage,omitempty"`

	Author *Author `json:"author"`

	IsFeatured bool `json:"featured"`
	ViewCount  int  `json:"viewCount"`
	ReadTime   *int `json:"readTime"`

	// event fields
	EventDate    time.Time `json:"eventDate,omitzero"`
	EventEndDate time.Time `json:"eventEndDate,omitzero"`
	Location     string    `json:"location,omitempty"`
	Type         string    `json:"type,omitempty"`

	Categories []Category `json:"categories"`
	Tags       []Tag      `json:"tags"`
	Related    []Content  `json:"relatedItems"`
}

// Date returns the variant's primary date.
func (c Content) Date() time.Time {
	if c.Variant == VariantEvent && !c.EventDate.IsZero() {
		return c.EventDate
	}
	if !c.PublishedDate.IsZero() {
		return c.PublishedDate
	}
	return c.PublishedAt
}

// Cover picks the largest image available for a card.
func (c Content) Cover() *Media {
	for _, m := range []*Media{c.Banner, c.Featured, c.Thumbnail} {
		if m != nil {
			return m
		}
	}
	return nil
}

type Media struct {
	ID      int               `json:"id"`
	URL     string            `json:"url"`
	Name    string            `json:"name"`
	Mime    string            `json:"mime"`
	Size    float64           `json:"size"`
	AltText string            `json:"altText,omitempty"`
	Width   int               `json:"width,omitempty"`
	Height  int               `json:"height,omitempty"`
	Formats map[string]Format `json:"formats,omitempty"`
}

type Format struct {
	URL    string  `json:"url"`
	Name   string  `json:"name,omitempty"`
	Mime   string  `json:"mime,omitempty"`
	Size   float64 `json:"size,omitempty"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
}

type Author struct {
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Image    *Media `json:"image,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Category and Tag are identified by Slug within their own collection.
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

type Tag struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

func (p Pagination) HasNextPage() bool {
	return p.Page < p.PageCount
}

type Page struct {
	Items      []Content  `json:"items"`
	Pagination Pagination `json:"pagination"`
}
