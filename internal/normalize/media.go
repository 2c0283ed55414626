package normalize

import (
	"strings"

	"scalesite/internal/domain/content"
)

// Media converts a media reference into a descriptor, or nil when it carries
// no url. base prefixes relative urls.
func Media(v any, base string) *content.Media {
	m, ok := asMap(v)
	if !ok {
		return nil
	}
	if str(m, "url") != "" && str(m, "mime") != "" {
		return buildMedia(m, intOf(m["id"]), base)
	}
	rec, ok := Resolve(m)
	if !ok || str(rec.Attrs, "url") == "" {
		return nil
	}
	return buildMedia(rec.Attrs, rec.ID, base)
}

func buildMedia(a map[string]any, id int, base string) *content.Media {
	size, _ := floatOf(a["size"])
	md := &content.Media{
		ID:      id,
		URL:     AbsoluteURL(str(a, "url"), base),
		Name:    str(a, "name"),
		Mime:    str(a, "mime"),
		Size:    size,
		AltText: str(a, "alternativeText", "altText"),
		Width:   intOf(a["width"]),
		Height:  intOf(a["height"]),
	}
	if formats, ok := a["formats"].(map[string]any); ok {
		for name, raw := range formats {
			f, ok := raw.(map[string]any)
			if !ok || str(f, "url") == "" {
				continue
			}
			if md.Formats == nil {
				md.Formats = make(map[string]content.Format, len(formats))
			}
			fsize, _ := floatOf(f["size"])
			md.Formats[name] = content.Format{
				URL:    AbsoluteURL(str(f, "url"), base),
				Name:   str(f, "name"),
				Mime:   str(f, "mime"),
				Size:   fsize,
				Width:  intOf(f["width"]),
				Height: intOf(f["height"]),
			}
		}
	}
	return md
}

// AbsoluteURL prefixes base onto u unless u already starts with "http".
func AbsoluteURL(u, base string) string {
	u = strings.TrimSpace(u)
	if u == "" || strings.HasPrefix(u, "http") || base == "" {
		return u
	}
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return base + u
}
