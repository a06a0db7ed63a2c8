// ABOUTME: Prompt construction as a pure function of style, history window, and new text
// ABOUTME: Unit-testable with no network or store dependency

package engine

import (
	"fmt"
	"strings"

	"github.com/2389/synapse-relay/internal/store"
	"github.com/2389/synapse-relay/internal/style"
)

// promptHistoryWindow is the number of recent turns included in the prompt.
const promptHistoryWindow = 10

// systemPreamble is the fixed opening of every dialogue prompt.
const systemPreamble = "You are Synapse, a concise and polite personal assistant. " +
	"Answer in the language the user writes in."

// PromptInput is everything BuildPrompt needs. History is the full stored
// history up to (not including) the new user text; the builder applies the
// window itself.
type PromptInput struct {
	Style    style.Tag
	History  []store.Turn
	UserText string
}

// BuildPrompt renders the model prompt. Same input always yields the same
// string.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Conversation style: %s\n", in.Style)

	window := in.History
	if len(window) > promptHistoryWindow {
		window = window[len(window)-promptHistoryWindow:]
	}
	if len(window) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, turn := range window {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Text)
		}
	}

	b.WriteString("\nuser: ")
	b.WriteString(in.UserText)
	b.WriteString("\nassistant:")
	return b.String()
}

// promptExcerptLimit bounds the diagnostic prompt excerpt appended in dev
// mode.
const promptExcerptLimit = 800

// promptExcerpt returns the prompt truncated for diagnostic display.
func promptExcerpt(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= promptExcerptLimit {
		return prompt
	}
	return string(runes[:promptExcerptLimit]) + "..."
}
