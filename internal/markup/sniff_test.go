package markup

import (
	"strings"
	"testing"
)

func TestLooksLikeMarkdown(t *testing.T) {
	doc := "# Title\n\nSome **bold** text with a [link](https://example.com).\n\n- item one\n- item two"
	if !LooksLikeMarkdown(doc) {
		t.Error("document with several indicators should sniff as markdown")
	}

	prose := "Just a plain sentence without structure."
	if LooksLikeMarkdown(prose) {
		t.Error("plain prose should not sniff as markdown")
	}

	// Two indicators is below the threshold.
	weak := "Some **bold** and a [link](https://example.com)"
	if LooksLikeMarkdown(weak) {
		t.Error("two indicators should not reach the threshold")
	}
}

func TestLooksLikeHTML(t *testing.T) {
	if !LooksLikeHTML("<p>hello <b>world</b></p>") {
		t.Error("wrapped fragment should sniff as HTML")
	}
	if LooksLikeHTML("plain text") {
		t.Error("plain text should not sniff as HTML")
	}
	if LooksLikeHTML("<p>unclosed") {
		t.Error("unclosed fragment should not sniff as HTML")
	}
}

func TestMarkdownToHTML(t *testing.T) {
	got := MarkdownToHTML("# Title\n\nbody with **bold**")
	for _, fragment := range []string{"<h1", "Title", "<strong>bold</strong>"} {
		if !strings.Contains(got, fragment) {
			t.Errorf("MarkdownToHTML missing %q in %q", fragment, got)
		}
	}
}
