package site

import (
	"fmt"
	"strings"

	"scalesite/internal/domain/content"
)

type RouteKind string

const (
	RouteIndex  RouteKind = "index"
	RouteDetail RouteKind = "detail"
)

// Route is one exported document: where it lives on the public site and
// where the exporter writes it.
type Route struct {
	Kind    RouteKind
	Variant content.Variant
	Slug    string
	Path    string
	OutPath string
}

func (r Route) String() string {
	var parts []string
	parts = append(parts, string(r.Kind))
	if r.Variant != "" {
		parts = append(parts, "variant="+string(r.Variant))
	}
	if r.Slug != "" {
		parts = append(parts, "slug="+r.Slug)
	}
	if r.Path != "" {
		parts = append(parts, "path="+r.Path)
	}
	if r.OutPath != "" {
		parts = append(parts, "out="+r.OutPath)
	}
	return strings.Join(parts, " ")
}

// PagePath is the public URL path of a record, e.g. /case-studies/smart-grid.
func PagePath(v content.Variant, slug string) string {
	if slug == "" {
		return "/" + v.Info().Collection
	}
	return fmt.Sprintf("/%s/%s", v.Info().Collection, slug)
}

// SafeSegment maps s onto characters that are safe in a file name.
func SafeSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "untitled"
	}
	repl := func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}
	return strings.Map(repl, s)
}
