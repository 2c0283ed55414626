// Package normalize turns CMS payloads of any historical shape into the
// stable view-models of package content. Nothing here returns an error:
// malformed input degrades to nil or empty values.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is a CMS entity with its envelope removed.
type Record struct {
	ID    int
	Attrs map[string]any
}

// Resolve unwraps the Strapi v4 `{data: {id, attributes}}` envelope as well
// as the flat v5 form. The id of the outermost carrier wins over an id found
// inside attributes.
func Resolve(v any) (Record, bool) {
	m, ok := asMap(v)
	if !ok {
		return Record{}, false
	}
	if d, has := m["data"]; has {
		dm, ok := d.(map[string]any)
		if !ok {
			return Record{}, false
		}
		m = dm
	}

	attrs := m
	if a, ok := m["attributes"].(map[string]any); ok {
		attrs = a
	}
	id := intOf(m["id"])
	if id == 0 {
		id = intOf(attrs["id"])
	}
	return Record{ID: id, Attrs: attrs}, true
}

// ResolveList unwraps a to-many relation: a bare array or `{data: [...]}`.
// Entries that do not resolve are dropped.
func ResolveList(v any) []Record {
	if m, ok := v.(map[string]any); ok {
		v = m["data"]
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(arr))
	for _, item := range arr {
		if rec, ok := Resolve(item); ok {
			out = append(out, rec)
		}
	}
	return out
}

// asMap accepts decoded JSON objects, raw JSON bytes, and any value that
// marshals to a JSON object (e.g. an already normalized record).
func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return t, t != nil
	case json.RawMessage:
		return decodeMap(t)
	case []byte:
		return decodeMap(t)
	case string, bool, float64, int, int64, json.Number, []any:
		return nil, false
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return decodeMap(b)
}

func decodeMap(b []byte) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

// first returns the first non-nil value among keys.
func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// str returns the first non-blank string among keys.
func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func intOf(v any) int {
	f, ok := floatOf(v)
	if !ok {
		return 0
	}
	return int(f)
}

func floatOf(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// optInt is like intOf but keeps "absent" distinguishable from zero.
// A leading number in strings such as "5 min" is accepted.
func optInt(v any) *int {
	if s, ok := v.(string); ok {
		if fields := strings.Fields(s); len(fields) > 0 {
			v = fields[0]
		}
	}
	f, ok := floatOf(v)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}

func boolOf(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	}
	return false
}
