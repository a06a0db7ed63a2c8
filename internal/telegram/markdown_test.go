// ABOUTME: Tests for markdown rendering into Telegram HTML
// ABOUTME: Formatting subset, list rewriting, and disallowed tag stripping

package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderHTMLBoldAndItalic(t *testing.T) {
	out := RenderHTML("**bold** and *italic*")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<em>italic</em>")
	assert.NotContains(t, out, "<p>")
}

func TestRenderHTMLCode(t *testing.T) {
	out := RenderHTML("inline `code` here")
	assert.Contains(t, out, "<code>code</code>")

	out = RenderHTML("```\nfmt.Println(\"hi\")\n```")
	assert.Contains(t, out, "<pre>")
	assert.Contains(t, out, "fmt.Println")
}

func TestRenderHTMLLists(t *testing.T) {
	out := RenderHTML("- first\n- second")
	assert.Contains(t, out, "• first")
	assert.Contains(t, out, "• second")
	assert.NotContains(t, out, "<ul>")
	assert.NotContains(t, out, "<li>")
}

func TestRenderHTMLHeadings(t *testing.T) {
	out := RenderHTML("# Title\n\nbody")
	assert.Contains(t, out, "<b>Title</b>")
	assert.NotContains(t, out, "<h1>")
}

func TestRenderHTMLEscapesSpecials(t *testing.T) {
	out := RenderHTML("a < b && b > c")
	assert.Contains(t, out, "&lt;")
	assert.NotContains(t, out, "a < b")
}

func TestRenderHTMLLinks(t *testing.T) {
	out := RenderHTML("[docs](https://example.com)")
	assert.Contains(t, out, `<a href="https://example.com">docs</a>`)
}

func TestRenderHTMLNoTripleBlankLines(t *testing.T) {
	out := RenderHTML("one\n\ntwo\n\n# three\n\nfour")
	assert.NotContains(t, out, "\n\n\n")
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestRenderHTMLPlainTextPassesThrough(t *testing.T) {
	assert.Equal(t, "just a sentence", RenderHTML("just a sentence"))
}
