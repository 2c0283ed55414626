package app

import (
	"net/url"
	"path/filepath"
	"strconv"

	"scalesite/internal/domain/content"
	"scalesite/internal/domain/site"
	"scalesite/internal/query"
)

// RouteBuilder derives export paths and API pagination links.
type RouteBuilder struct {
	// APIPrefix is prepended to collection links, e.g. "/api".
	APIPrefix string
}

func (rb *RouteBuilder) BuildIndexRoute(v content.Variant) site.Route {
	return site.Route{
		Kind:    site.RouteIndex,
		Variant: v,
		Path:    site.PagePath(v, ""),
		OutPath: filepath.Join(v.Info().Collection, "index.json"),
	}
}

func (rb *RouteBuilder) BuildDetailRoutes(v content.Variant, items []content.Content) []site.Route {
	routes := make([]site.Route, 0, len(items))
	for _, it := range items {
		if it.Slug == "" {
			continue
		}
		routes = append(routes, rb.BuildDetailRoute(v, it.Slug))
	}
	return routes
}

func (rb *RouteBuilder) BuildDetailRoute(v content.Variant, slug string) site.Route {
	return site.Route{
		Kind:    site.RouteDetail,
		Variant: v,
		Slug:    slug,
		Path:    site.PagePath(v, slug),
		OutPath: filepath.Join(v.Info().Collection, site.SafeSegment(slug)+".json"),
	}
}

type Links struct {
	Self string `json:"self"`
	Next string `json:"next,omitempty"`
	Prev string `json:"prev,omitempty"`
}

// ListLinks builds self/next/prev links for a collection listing.
func (rb *RouteBuilder) ListLinks(req query.Request, p content.Pagination) Links {
	req = req.Normalized()
	links := Links{Self: rb.listURL(req)}
	if p.HasNextPage() {
		links.Next = rb.listURL(req.WithPage(req.Page + 1))
	}
	if req.Page > 1 {
		links.Prev = rb.listURL(req.WithPage(req.Page - 1))
	}
	return links
}

func (rb *RouteBuilder) listURL(req query.Request) string {
	v := url.Values{}
	f := req.Filters
	if f.CategorySlug != "" {
		v.Set("category", f.CategorySlug)
	}
	if f.TagSlug != "" {
		v.Set("tag", f.TagSlug)
	}
	if f.Slug != "" {
		v.Set("slug", f.Slug)
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Type != "" {
		v.Set("type", f.Type)
	}
	if f.ExcludeID > 0 {
		v.Set("exclude", strconv.Itoa(f.ExcludeID))
	}
	v.Set("page", strconv.Itoa(req.Page))
	v.Set("pageSize", strconv.Itoa(req.PageSize))
	return rb.APIPrefix + "/" + req.Variant.Info().Collection + "?" + v.Encode()
}
