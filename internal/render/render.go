// Package render turns CMS bodies into sanitized HTML plus a table of
// contents.
package render

import (
	"scalesite/internal/domain/content"
)

type Result struct {
	HTML string    `json:"html"`
	TOC  []Heading `json:"toc"`
}

type Renderer struct {
	md        *MarkdownRenderer
	mediaBase string
}

// New returns a renderer that resolves relative image URLs in block bodies
// against mediaBase.
func New(mediaBase string) *Renderer {
	return &Renderer{md: NewMarkdownRenderer(), mediaBase: mediaBase}
}

func (r *Renderer) Body(b content.Body) (Result, error) {
	var src string
	switch b.Format {
	case content.BodyMarkdown:
		src = b.Markdown
	case content.BodyBlocks:
		src = BlocksToMarkdown(b.Blocks, r.mediaBase)
	default:
		return Result{TOC: []Heading{}}, nil
	}
	res, err := r.md.Render([]byte(src))
	if err != nil {
		return Result{}, err
	}
	return Result{HTML: Sanitize(string(res.HTML)), TOC: res.Headings}, nil
}
