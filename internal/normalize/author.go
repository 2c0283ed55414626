package normalize

import (
	"strings"

	"scalesite/internal/domain/content"
)

const DefaultAuthorName = "SCALE Author"

// authorField maps a canonical author field to the keys it has been stored
// under over time. Legacy keys are the `author*` names some records carry at
// the top level of the content record itself.
type authorField struct {
	name    string
	primary []string
	legacy  []string
}

var authorFields = []authorField{
	{name: "name", primary: []string{"name"}, legacy: []string{"authorName"}},
	{name: "role", primary: []string{"role", "designation"}, legacy: []string{"authorRole", "authorDesignation"}},
	{name: "bio", primary: []string{"bio"}, legacy: []string{"authorBio"}},
	{name: "image", primary: []string{"image", "avatar"}, legacy: []string{"authorImage"}},
	{name: "linkedin", primary: []string{"linkedin", "linkedIn"}, legacy: []string{"authorLinkedin", "authorLinkedIn"}},
	{name: "twitter", primary: []string{"twitter"}, legacy: []string{"authorTwitter"}},
	{name: "email", primary: []string{"email"}, legacy: []string{"authorEmail"}},
}

// Author resolves a string, flat object or wrapped relation into an author.
// It returns nil when no author data exists at all; an author without a name
// gets the placeholder name.
func Author(v any, opts Options) *content.Author {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		return &content.Author{Name: s}
	}
	rec, ok := Resolve(v)
	if !ok {
		return nil
	}
	return authorFrom(rec.Attrs, false, opts)
}

// legacyAuthor reads the `author*` keys stored directly on a content record.
func legacyAuthor(record map[string]any, opts Options) *content.Author {
	return authorFrom(record, true, opts)
}

func authorFrom(m map[string]any, legacyOnly bool, opts Options) *content.Author {
	var a content.Author
	found := false
	for _, f := range authorFields {
		keys := f.legacy
		if !legacyOnly {
			keys = append(append([]string{}, f.primary...), f.legacy...)
		}
		if f.name == "image" {
			if img := authorImage(first(m, keys...), opts.MediaBase); img != nil {
				a.Image = img
				found = true
			}
			continue
		}
		val := str(m, keys...)
		if val == "" {
			continue
		}
		found = true
		switch f.name {
		case "name":
			a.Name = val
		case "role":
			a.Role = val
		case "bio":
			a.Bio = val
		case "linkedin":
			a.LinkedIn = val
		case "twitter":
			a.Twitter = val
		case "email":
			a.Email = val
		}
	}
	if !found {
		return nil
	}
	if a.Name == "" {
		a.Name = opts.placeholder()
	}
	return &a
}

// authorImage also takes a bare url string, as older records store it.
func authorImage(v any, base string) *content.Media {
	if s, ok := v.(string); ok {
		if s = strings.TrimSpace(s); s == "" {
			return nil
		}
		return &content.Media{URL: AbsoluteURL(s, base)}
	}
	return Media(v, base)
}
