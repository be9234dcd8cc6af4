package markup

import "regexp"

// markdownIndicators are structural hints that a text blob is markdown. A
// single hit is common in prose; sniffing requires several.
var markdownIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?m)#{1,6}\s.+`),           // headers
	regexp.MustCompile(`(\*\*|__).+?(\*\*|__)`),    // bold
	regexp.MustCompile(`(\*|_).+?(\*|_)`),          // italic
	regexp.MustCompile("`{1,3}[^`\n]+`{1,3}"),      // inline code
	regexp.MustCompile(`(?m)^\s*[-*+]\s`),          // unordered lists
	regexp.MustCompile(`(?m)^\s*\d+\.\s`),          // ordered lists
	regexp.MustCompile(`\[.+?\]\(.+?\)`),           // links
	regexp.MustCompile(`!\[.+?\]\(.+?\)`),          // images
	regexp.MustCompile(`(?m)^\s*([-*_]){3,}\s*$`),  // horizontal rules
	regexp.MustCompile(`(?m)^>.+`),                 // blockquotes
	regexp.MustCompile("(?ms)^\\s*```.+?```\\s*$"), // fenced code
	regexp.MustCompile(`\|.+\|.+\|`),               // tables
	regexp.MustCompile(`~~.+?~~`),                  // strikethrough
}

// minMarkdownIndicators is the number of distinct indicators required before
// a blob counts as markdown.
const minMarkdownIndicators = 3

// LooksLikeMarkdown reports whether text is plausibly a markdown document.
func LooksLikeMarkdown(text string) bool {
	count := 0
	for _, pattern := range markdownIndicators {
		if pattern.MatchString(text) {
			count++
			if count >= minMarkdownIndicators {
				return true
			}
		}
	}
	return false
}

var htmlFragmentPattern = regexp.MustCompile(`(?is)^<([a-z][a-z0-9]*)\b[^>]*>.*</([a-z][a-z0-9]*)>$`)

// LooksLikeHTML reports whether text is a single HTML fragment.
func LooksLikeHTML(text string) bool {
	return htmlFragmentPattern.MatchString(text)
}
