package notion

import (
	"fmt"
	"regexp"
	"strings"
)

var youtubeIDPattern = regexp.MustCompile(`(?:youtu\.be/|youtube\.com/(?:watch\?v=|embed/))([^?&]+)`)

// richTextToHTML renders rich text spans with their inline annotations.
// Returns "" for an empty span list so callers can skip empty blocks.
func richTextToHTML(spans []any) string {
	var out strings.Builder

	for _, span := range spans {
		m, ok := span.(map[string]any)
		if !ok {
			continue
		}
		html := asString(m["plain_text"])

		annotations, _ := m["annotations"].(map[string]any)
		if annotations != nil {
			if annotations["bold"] == true {
				html = "<strong>" + html + "</strong>"
			}
			if annotations["italic"] == true {
				html = "<em>" + html + "</em>"
			}
			if annotations["strikethrough"] == true {
				html = "<s>" + html + "</s>"
			}
			if annotations["underline"] == true {
				html = "<u>" + html + "</u>"
			}
			if annotations["code"] == true {
				html = "<code>" + html + "</code>"
			}
			if color := asString(annotations["color"]); color != "" && color != "default" {
				html = fmt.Sprintf(`<span style="color:%s">%s</span>`, strings.ReplaceAll(color, "_", ""), html)
			}
		}

		if href := asString(m["href"]); href != "" {
			html = fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`, href, html)
		}

		out.WriteString(html)
	}

	return out.String()
}

// blocksToHTML renders page blocks to an HTML fragment. Consecutive list item
// blocks of the same type fold into one list element.
func blocksToHTML(blocks []map[string]any) string {
	var out strings.Builder

	blockType := func(i int) string {
		if i < 0 || i >= len(blocks) {
			return ""
		}
		t, _ := blocks[i]["type"].(string)
		return t
	}

	for i, block := range blocks {
		kind := blockType(i)
		item, _ := block[kind].(map[string]any)
		if item == nil {
			continue
		}
		spans := asSpans(item["rich_text"])

		switch kind {
		case "paragraph", "toggle":
			if text := richTextToHTML(spans); text != "" {
				out.WriteString("<p>" + text + "</p>")
			}
		case "heading_1", "heading_2", "heading_3":
			if text := richTextToHTML(spans); text != "" {
				tag := "h" + kind[len(kind)-1:]
				out.WriteString("<" + tag + ">" + text + "</" + tag + ">")
			}
		case "divider":
			out.WriteString("<hr>")
		case "image":
			if url := blockFileURL(item); url != "" {
				if alt := captionText(item); alt != "" {
					out.WriteString(fmt.Sprintf(`<img src="%s" alt="%s">`, url, alt))
				} else {
					out.WriteString(fmt.Sprintf(`<img src="%s">`, url))
				}
			}
		case "bulleted_list_item", "numbered_list_item", "to_do":
			text := richTextToHTML(spans)
			if text == "" {
				continue
			}
			tag := "ul"
			if kind == "numbered_list_item" {
				tag = "ol"
			}
			if blockType(i-1) != kind {
				out.WriteString("<" + tag + ">")
			}
			out.WriteString("<li>" + text + "</li>")
			if blockType(i+1) != kind {
				out.WriteString("</" + tag + ">")
			}
		case "code":
			if language := codeLanguageNames[asString(item["language"])]; language != "" {
				out.WriteString(fmt.Sprintf(`<pre data-language="%s"><code>%s</code></pre>`, language, richTextToHTML(spans)))
			} else {
				out.WriteString("<pre><code>" + richTextToHTML(spans) + "</code></pre>")
			}
		case "quote":
			if text := richTextToHTML(spans); text != "" {
				out.WriteString("<blockquote>" + text + "</blockquote>")
			}
		case "callout":
			if text := richTextToHTML(spans); text != "" {
				out.WriteString("<aside>" + text + "</aside>")
			}
		case "equation":
			out.WriteString("<p>" + asString(item["expression"]) + "</p>")
		case "video":
			if item["type"] == "external" {
				if external, ok := item["external"].(map[string]any); ok {
					if m := youtubeIDPattern.FindStringSubmatch(asString(external["url"])); m != nil {
						out.WriteString(fmt.Sprintf(`<iframe src="https://www.youtube.com/embed/%s"></iframe>`, m[1]))
					}
				}
			}
		}
	}

	return out.String()
}

func blockFileURL(item map[string]any) string {
	fileType, _ := item["type"].(string)
	if fileType != "external" && fileType != "file" {
		return ""
	}
	if payload, ok := item[fileType].(map[string]any); ok {
		return asString(payload["url"])
	}
	return ""
}

func captionText(item map[string]any) string {
	captions := asSpans(item["caption"])
	if len(captions) == 0 {
		return ""
	}
	if m, ok := captions[0].(map[string]any); ok {
		return asString(m["plain_text"])
	}
	return ""
}

// codeLanguageNames maps the source's fence language tags to the destination
// editor's names; unmapped languages render as plain code blocks.
var codeLanguageNames = map[string]string{
	"bash": "Shell", "c": "C", "c++": "C++", "c#": "C#", "css": "CSS",
	"go": "Go", "haskell": "Haskell", "html": "HTML", "java": "Java",
	"javascript": "JavaScript", "julia": "Julia", "kotlin": "Kotlin",
	"less": "Less", "lua": "Lua", "markdown": "Markdown", "matlab": "MATLAB",
	"objective-c": "Objective-C", "perl": "Perl", "php": "PHP",
	"python": "Python", "ruby": "Ruby", "rust": "Rust", "scala": "Scala",
	"scss": "SCSS", "shell": "Shell", "sql": "SQL", "swift": "Swift",
	"typescript": "TypeScript", "yaml": "YAML",
}
