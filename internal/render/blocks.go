package render

import (
	"strconv"
	"strings"

	"scalesite/internal/domain/content"
	"scalesite/internal/normalize"
)

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`<`, `\<`,
	`>`, `\>`,
	`#`, `\#`,
	`~`, `\~`,
	`|`, `\|`,
)

// BlocksToMarkdown flattens a blocks-editor tree to markdown. Unknown block
// types fall back to their text content.
func BlocksToMarkdown(blocks []content.Block, mediaBase string) string {
	var b strings.Builder
	for _, blk := range blocks {
		writeBlock(&b, blk, mediaBase)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeBlock(b *strings.Builder, blk content.Block, base string) {
	switch blk.Type {
	case "heading":
		level := min(max(blk.Level, 1), 6)
		b.WriteString(strings.Repeat("#", level))
		b.WriteByte(' ')
		b.WriteString(inline(blk.Children))
	case "list":
		writeList(b, blk, "", base)
		b.WriteByte('\n')
		return
	case "quote":
		for i, line := range strings.Split(inline(blk.Children), "\n") {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("> ")
			b.WriteString(line)
		}
	case "code":
		b.WriteString("```")
		b.WriteString(blk.Format)
		b.WriteByte('\n')
		b.WriteString(plain(blk.Children))
		b.WriteString("\n```")
	case "image":
		if blk.Image == nil || blk.Image.URL == "" {
			return
		}
		b.WriteString("![")
		b.WriteString(mdEscaper.Replace(blk.Image.AltText))
		b.WriteString("](")
		b.WriteString(normalize.AbsoluteURL(blk.Image.URL, base))
		b.WriteByte(')')
	default:
		text := inline(blk.Children)
		if text == "" && blk.Text != "" {
			text = inline([]content.Block{blk})
		}
		if text == "" {
			return
		}
		b.WriteString(text)
	}
	b.WriteString("\n\n")
}

func writeList(b *strings.Builder, list content.Block, indent, base string) {
	n := 0
	for _, item := range list.Children {
		if item.Type == "list" {
			writeList(b, item, indent+"   ", base)
			continue
		}
		n++
		marker := "- "
		if list.Format == "ordered" {
			marker = strconv.Itoa(n) + ". "
		}
		b.WriteString(indent)
		b.WriteString(marker)
		var nested []content.Block
		var text []content.Block
		for _, c := range item.Children {
			if c.Type == "list" {
				nested = append(nested, c)
			} else {
				text = append(text, c)
			}
		}
		b.WriteString(inline(text))
		b.WriteByte('\n')
		for _, sub := range nested {
			writeList(b, sub, indent+"   ", base)
		}
	}
}

func inline(nodes []content.Block) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n.Type {
		case "link":
			b.WriteByte('[')
			b.WriteString(inline(n.Children))
			b.WriteString("](")
			b.WriteString(n.URL)
			b.WriteByte(')')
		case "text", "":
			b.WriteString(styled(n))
		default:
			b.WriteString(inline(n.Children))
		}
	}
	return b.String()
}

func styled(n content.Block) string {
	if n.Text == "" {
		return ""
	}
	if n.Code {
		return "`" + strings.ReplaceAll(n.Text, "`", "") + "`"
	}
	// Markers must hug the text, so surrounding spaces stay outside.
	core := strings.TrimSpace(n.Text)
	if core == "" {
		return n.Text
	}
	lead := n.Text[:strings.Index(n.Text, core)]
	trail := n.Text[len(lead)+len(core):]
	s := mdEscaper.Replace(core)
	if n.Bold {
		s = "**" + s + "**"
	}
	if n.Italic {
		s = "_" + s + "_"
	}
	if n.Strikethrough {
		s = "~~" + s + "~~"
	}
	if n.Underline {
		s = "<u>" + s + "</u>"
	}
	return lead + s + trail
}

func plain(nodes []content.Block) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.Text)
		b.WriteString(plain(n.Children))
	}
	return b.String()
}
