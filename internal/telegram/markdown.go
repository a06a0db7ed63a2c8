// ABOUTME: Renders model markdown into the HTML subset the Bot API accepts
// ABOUTME: goldmark conversion followed by structural rewriting for chat display

package telegram

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
)

// Telegram's HTML parse mode accepts only inline tags. Everything else in
// goldmark's output has to be rewritten to text structure or dropped.
var allowedTags = map[string]bool{
	"b": true, "strong": true,
	"i": true, "em": true,
	"u": true, "s": true,
	"code": true, "pre": true,
	"a":          true,
	"blockquote": true,
}

var (
	headingOpenPattern  = regexp.MustCompile(`<h[1-6][^>]*>`)
	headingClosePattern = regexp.MustCompile(`</h[1-6]>`)
	anyTagPattern       = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9-]*)[^>]*>`)
)

// RenderHTML converts markdown to Telegram-safe HTML. Conversion failures
// fall back to the escaped source text so the reply is never lost.
func RenderHTML(markdown string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return escapeHTML(markdown)
	}

	html := buf.String()

	// Block structure becomes line breaks and bullets.
	html = strings.ReplaceAll(html, "<p>", "")
	html = strings.ReplaceAll(html, "</p>", "\n\n")
	html = strings.ReplaceAll(html, "<br>", "\n")
	html = strings.ReplaceAll(html, "<br/>", "\n")
	html = strings.ReplaceAll(html, "<br />", "\n")
	html = strings.ReplaceAll(html, "<li>", "• ")
	html = strings.ReplaceAll(html, "</li>", "\n")
	html = strings.ReplaceAll(html, "<hr>", "\n")
	html = strings.ReplaceAll(html, "<hr/>", "\n")
	html = strings.ReplaceAll(html, "<hr />", "\n")
	html = headingOpenPattern.ReplaceAllString(html, "<b>")
	html = headingClosePattern.ReplaceAllString(html, "</b>\n\n")

	// Unwrap whatever tags remain outside the allowed set.
	html = anyTagPattern.ReplaceAllStringFunc(html, func(tag string) string {
		name := strings.ToLower(anyTagPattern.FindStringSubmatch(tag)[1])
		if allowedTags[name] {
			return tag
		}
		return ""
	})

	// Collapse the blank-line runs the block rewriting leaves behind.
	for strings.Contains(html, "\n\n\n") {
		html = strings.ReplaceAll(html, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(html)
}

// escapeHTML escapes the three characters the Bot API requires escaped.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
