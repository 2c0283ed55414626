package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"scalesite/internal/domain/content"
)

type term struct {
	id          int
	name        string
	slug        string
	description string
	color       string
}

// terms resolves a to-many taxonomy relation. Entries with neither name nor
// slug are dropped, and the first entry for a slug wins.
func terms(v any) []term {
	recs := ResolveList(v)
	if len(recs) == 0 {
		// legacy single-valued relation
		if rec, ok := Resolve(v); ok {
			recs = []Record{rec}
		}
	}
	out := make([]term, 0, len(recs))
	seen := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		name := str(rec.Attrs, "name", "title")
		slug := str(rec.Attrs, "slug")
		if slug == "" {
			slug = slugify(name)
		}
		if slug == "" {
			continue
		}
		if name == "" {
			name = nameFromSlug(slug)
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, term{
			id:          rec.ID,
			name:        name,
			slug:        slug,
			description: str(rec.Attrs, "description"),
			color:       str(rec.Attrs, "color"),
		})
	}
	return out
}

// Categories never returns nil.
func Categories(v any) []content.Category {
	ts := terms(v)
	out := make([]content.Category, 0, len(ts))
	for _, t := range ts {
		out = append(out, content.Category{ID: t.id, Name: t.name, Slug: t.slug, Description: t.description, Color: t.color})
	}
	return out
}

// Tags never returns nil.
func Tags(v any) []content.Tag {
	ts := terms(v)
	out := make([]content.Tag, 0, len(ts))
	for _, t := range ts {
		out = append(out, content.Tag{ID: t.id, Name: t.name, Slug: t.slug, Description: t.description, Color: t.color})
	}
	return out
}

// Casers are stateful, so one is built per call.
func nameFromSlug(slug string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
}
