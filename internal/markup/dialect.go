// Package markup converts the lightweight markup dialect used by the source
// ecosystems to HTML or plain text, and provides a strict CommonMark
// converter for document-shaped content.
package markup

import (
	"fmt"
	"regexp"
	"strings"
)

// prefixTags maps line prefixes of the dialect to their HTML container tag.
var prefixTags = []struct {
	prefix string
	tag    string
}{
	{"######", "h6"},
	{"#####", "h5"},
	{"####", "h4"},
	{"###", "h3"},
	{"##", "h2"},
	{"#", "h1"},
	{"[ ]", "ul"},
	{"[x]", "ul"},
	{"-", "ul"},
	{"*", "ul"},
	{">", "blockquote"},
}

var (
	dividerPattern      = regexp.MustCompile(`^(\*{3,}|-{3,}|_{3,})\s*$`)
	imagePattern        = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	numberedListPattern = regexp.MustCompile(`^(\d+)\.\s(.+)`)
	fenceInfoPattern    = regexp.MustCompile("^```(\\w+)")
	indentPattern       = regexp.MustCompile(`^(\s*)`)
)

type openList struct {
	tag   string
	level int
}

// ToHTML converts dialect text to HTML. Headings, list markers, blockquotes,
// fenced code, dividers, and images are block-level; consecutive plain lines
// merge into one paragraph joined with <br>.
func ToHTML(text string) string {
	var (
		lines          []string
		listStack      []openList
		inCodeBlock    bool
		codeLines      []string
		codeLanguage   string
		paragraph      []string
		paragraphStart = true
	)

	flushParagraph := func() {
		if len(paragraph) > 0 {
			lines = append(lines, "<p>"+strings.Join(paragraph, "")+"</p>")
			paragraph = nil
			paragraphStart = true
		}
	}

	closeList := func() {
		lines = append(lines, "</"+listStack[len(listStack)-1].tag+">")
		listStack = listStack[:len(listStack)-1]
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if dividerPattern.MatchString(trimmed) {
			lines = append(lines, "<hr>")
			continue
		}

		if strings.HasPrefix(trimmed, "```") {
			if inCodeBlock {
				code := strings.Join(codeLines, "\n")
				if codeLanguage != "" {
					lines = append(lines, fmt.Sprintf("<pre data-language=%q><code>%s</code></pre>", codeLanguage, code))
				} else {
					lines = append(lines, "<pre><code>"+code+"</code></pre>")
				}
				codeLines = nil
				codeLanguage = ""
			} else {
				if m := fenceInfoPattern.FindStringSubmatch(trimmed); m != nil && knownCodeLanguage(m[1]) {
					codeLanguage = m[1]
				}
			}
			inCodeBlock = !inCodeBlock
			continue
		}

		if inCodeBlock {
			codeLines = append(codeLines, line)
			continue
		}

		if trimmed == "" {
			flushParagraph()
			continue
		}

		if m := imagePattern.FindStringSubmatch(line); m != nil {
			lines = append(lines, fmt.Sprintf("<img src=%q alt=%q>", m[2], m[1]))
			continue
		}

		tag, content, numbered, indent := splitLine(line, false)

		// Close lists that are deeper than the current indent.
		for len(listStack) > 0 && listStack[len(listStack)-1].level > indent {
			closeList()
		}

		if tag == "ul" || numbered {
			listTag := "ul"
			if numbered {
				listTag = "ol"
			}

			if len(listStack) == 0 || listStack[len(listStack)-1].level < indent {
				lines = append(lines, "<"+listTag+">")
				listStack = append(listStack, openList{tag: listTag, level: indent})
			} else if listStack[len(listStack)-1].tag != listTag {
				// Same level, different marker: switch list flavor.
				closeList()
				lines = append(lines, "<"+listTag+">")
				listStack = append(listStack, openList{tag: listTag, level: indent})
			}

			lines = append(lines, "<li>"+content+"</li>")
			continue
		}

		for len(listStack) > 0 {
			closeList()
		}

		if tag != "" {
			flushParagraph()
			lines = append(lines, "<"+tag+">"+content+"</"+tag+">")
			paragraphStart = true
			continue
		}

		if !paragraphStart {
			paragraph = append(paragraph, "<br>")
		}
		paragraph = append(paragraph, content)
		paragraphStart = false
	}

	flushParagraph()

	for len(listStack) > 0 {
		closeList()
	}

	return strings.Join(lines, "\n")
}

// ToPlainText strips the dialect's markers and inline formatting, keeping
// fenced code verbatim.
func ToPlainText(text string) string {
	var lines []string
	inCodeBlock := false

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "```" {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			lines = append(lines, line)
			continue
		}
		_, content, _, _ := splitLine(line, true)
		lines = append(lines, content)
	}

	return strings.Join(lines, "\n")
}

// splitLine separates a dialect line into its block tag (if any), the inline
// converted remainder, whether it is a numbered list item, and the indent
// level (one level per 4 spaces).
func splitLine(line string, stripFormatting bool) (tag, content string, numbered bool, indent int) {
	if m := indentPattern.FindStringSubmatch(line); m != nil {
		indent = len(m[1]) / 4
	}
	line = strings.TrimSpace(line)

	for _, pt := range prefixTags {
		if strings.HasPrefix(line, pt.prefix+" ") {
			rest := line[len(pt.prefix)+1:]
			return pt.tag, convertInline(rest, stripFormatting), false, indent
		}
	}

	if m := numberedListPattern.FindStringSubmatch(line); m != nil {
		return "", convertInline(m[2], stripFormatting), true, indent
	}

	return "", convertInline(line, stripFormatting), false, indent
}

var (
	boldPattern       = regexp.MustCompile(`(\*\*|__)((?:\\[\s\S]|[^\\])+?)(\*\*|__)`)
	italicPattern     = regexp.MustCompile(`([*_])((?:\\[\s\S]|[^\\])+?)([*_])`)
	strikePattern     = regexp.MustCompile(`~~((?:\\[\s\S]|[^\\])+?)~~`)
	linkPattern       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	inlineCodePattern = regexp.MustCompile("`((?:\\\\[\\s\\S]|[^\\\\`])+?)`")
	autoLinkPattern   = regexp.MustCompile(`<(https?://[^\s>]+)>`)
	autoMailPattern   = regexp.MustCompile(`<([^\s>]+@[^\s>]+)>`)
)

// convertInline rewrites inline dialect formatting to HTML, or strips it when
// stripFormatting is set. Inline image syntax is always removed from text.
func convertInline(line string, stripFormatting bool) string {
	replace := func(pattern *regexp.Regexp, html, plain string) {
		if stripFormatting {
			line = pattern.ReplaceAllString(line, plain)
		} else {
			line = pattern.ReplaceAllString(line, html)
		}
	}

	replace(boldPattern, "<strong>$2</strong>", "$2")
	replace(italicPattern, "<em>$2</em>", "$2")
	replace(strikePattern, "<del>$1</del>", "$1")
	replace(imagePattern, "", "$1")
	replace(linkPattern, `<a href="$2">$1</a>`, "$1")
	replace(inlineCodePattern, "<code>$1</code>", "$1")
	replace(autoLinkPattern, `<a href="$1">$1</a>`, "$1")
	replace(autoMailPattern, `<a href="mailto:$1">$1</a>`, "$1")

	return line
}

// knownCodeLanguage reports whether the fence info string names a language
// the destination understands; unknown languages render as plain code.
func knownCodeLanguage(lang string) bool {
	_, ok := codeBlockLanguages[strings.ToLower(lang)]
	return ok
}

var codeBlockLanguages = map[string]struct{}{
	"bash": {}, "c": {}, "cpp": {}, "csharp": {}, "css": {}, "go": {},
	"haskell": {}, "html": {}, "java": {}, "javascript": {}, "julia": {},
	"kotlin": {}, "less": {}, "lua": {}, "markdown": {}, "matlab": {},
	"objectivec": {}, "perl": {}, "php": {}, "python": {}, "ruby": {},
	"rust": {}, "scala": {}, "scss": {}, "shell": {}, "sql": {},
	"swift": {}, "typescript": {}, "yaml": {},
}
