package markup

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// md is the strict CommonMark converter. The dialect converter handles text
// pasted out of the source ecosystems; this one handles cells and pages that
// hold genuine markdown documents.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// MarkdownToHTML converts a CommonMark document to HTML. It returns the
// input unchanged if rendering fails, so a malformed document degrades to
// plain text rather than losing the value.
func MarkdownToHTML(text string) string {
	var buf strings.Builder
	if err := md.Convert([]byte(text), &buf); err != nil {
		return text
	}
	return strings.TrimSpace(buf.String())
}
