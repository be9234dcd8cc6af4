package notion

import "testing"

func block(kind string, item map[string]any) map[string]any {
	return map[string]any{"type": kind, kind: item}
}

func textBlock(kind, text string) map[string]any {
	return block(kind, map[string]any{"rich_text": []any{span(text)}})
}

func TestRichTextToHTML(t *testing.T) {
	spans := []any{
		map[string]any{
			"plain_text":  "styled",
			"annotations": map[string]any{"bold": true, "italic": true, "color": "default"},
		},
		map[string]any{
			"plain_text":  "link",
			"annotations": map[string]any{"color": "default"},
			"href":        "https://x.io",
		},
		map[string]any{
			"plain_text":  "red",
			"annotations": map[string]any{"color": "red"},
		},
	}

	got := richTextToHTML(spans)
	want := `<em><strong>styled</strong></em>` +
		`<a href="https://x.io" target="_blank" rel="noopener noreferrer">link</a>` +
		`<span style="color:red">red</span>`
	if got != want {
		t.Fatalf("richTextToHTML = %q, want %q", got, want)
	}
}

func TestBlocksToHTML(t *testing.T) {
	tests := []struct {
		name   string
		blocks []map[string]any
		want   string
	}{
		{
			"headings and paragraph",
			[]map[string]any{textBlock("heading_1", "Title"), textBlock("paragraph", "Body")},
			"<h1>Title</h1><p>Body</p>",
		},
		{
			"consecutive list items fold into one list",
			[]map[string]any{
				textBlock("bulleted_list_item", "a"),
				textBlock("bulleted_list_item", "b"),
				textBlock("numbered_list_item", "c"),
			},
			"<ul><li>a</li><li>b</li></ul><ol><li>c</li></ol>",
		},
		{
			"divider and quote",
			[]map[string]any{block("divider", map[string]any{}), textBlock("quote", "wise")},
			"<hr><blockquote>wise</blockquote>",
		},
		{
			"code with known language",
			[]map[string]any{block("code", map[string]any{
				"rich_text": []any{span("x := 1")},
				"language":  "go",
			})},
			`<pre data-language="Go"><code>x := 1</code></pre>`,
		},
		{
			"code with unknown language",
			[]map[string]any{block("code", map[string]any{
				"rich_text": []any{span("say hi")},
				"language":  "cobol",
			})},
			"<pre><code>say hi</code></pre>",
		},
		{
			"external image with caption",
			[]map[string]any{block("image", map[string]any{
				"type":     "external",
				"external": map[string]any{"url": "https://x.io/a.png"},
				"caption":  []any{span("a cat")},
			})},
			`<img src="https://x.io/a.png" alt="a cat">`,
		},
		{
			"youtube video embeds",
			[]map[string]any{block("video", map[string]any{
				"type":     "external",
				"external": map[string]any{"url": "https://www.youtube.com/watch?v=abc123"},
			})},
			`<iframe src="https://www.youtube.com/embed/abc123"></iframe>`,
		},
		{
			"non-youtube video is dropped",
			[]map[string]any{block("video", map[string]any{
				"type":     "external",
				"external": map[string]any{"url": "https://vimeo.com/123"},
			})},
			"",
		},
		{
			"empty paragraph is dropped",
			[]map[string]any{block("paragraph", map[string]any{"rich_text": []any{}})},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := blocksToHTML(tt.blocks); got != tt.want {
				t.Fatalf("blocksToHTML = %q, want %q", got, tt.want)
			}
		})
	}
}
