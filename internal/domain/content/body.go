package content

import (
	"bytes"
	"encoding/json"
)

type BodyFormat string

const (
	BodyNone     BodyFormat = ""
	BodyMarkdown BodyFormat = "markdown"
	BodyBlocks   BodyFormat = "blocks"
)

// Body is the rich content of a record. On the wire it is either a markdown
// string, a Strapi blocks array or null.
type Body struct {
	Format   BodyFormat
	Markdown string
	Blocks   []Block
}

// Block is one node of the Strapi blocks editor tree.
type Block struct {
	Type   string `json:"type"`
	Level  int    `json:"level,omitempty"`
	Format string `json:"format,omitempty"`
	URL    string `json:"url,omitempty"`
	Image  *Media `json:"image,omitempty"`

	Text          string `json:"text,omitempty"`
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Code          bool   `json:"code,omitempty"`

	Children []Block `json:"children,omitempty"`
}

func (b Body) IsZero() bool {
	return b.Format == BodyNone
}

func (b Body) MarshalJSON() ([]byte, error) {
	switch b.Format {
	case BodyMarkdown:
		return json.Marshal(b.Markdown)
	case BodyBlocks:
		return json.Marshal(b.Blocks)
	default:
		return []byte("null"), nil
	}
}

func (b *Body) UnmarshalJSON(data []byte) error {
	*b = Body{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != "" {
			b.Format = BodyMarkdown
			b.Markdown = s
		}
	case '[':
		var blocks []Block
		if err := json.Unmarshal(data, &blocks); err != nil {
			return err
		}
		if len(blocks) > 0 {
			b.Format = BodyBlocks
			b.Blocks = blocks
		}
	}
	return nil
}
