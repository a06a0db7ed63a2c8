// ABOUTME: Dialogue engine driving the per-message round-trip and command dispatch
// ABOUTME: Gate first, then command handlers or the record-generate-record dialogue path

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/2389/synapse-relay/internal/access"
	"github.com/2389/synapse-relay/internal/provider"
	"github.com/2389/synapse-relay/internal/store"
	"github.com/2389/synapse-relay/internal/style"
)

// Store defines what the engine needs from the conversation store.
type Store interface {
	RecordUserTurn(userID int64, username, text string)
	RecordAssistantTurn(userID int64, text string)
	AppendPlan(userID int64, plan store.Plan)
	SnapshotFor(userID int64) (store.Profile, []store.Turn, error)
	ListProfiles() []store.ProfileSummary
	DevMode() bool
	ToggleDevMode() bool
	ClearAll()
	Flush() error
}

// Generator defines what the engine needs from the provider layer.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Config holds engine tuning.
type Config struct {
	// MaxTokens is the response token ceiling passed to the provider.
	MaxTokens int
	// GenerateTimeout bounds one provider round-trip. Past it the call is
	// treated as a provider failure and the engine degrades.
	GenerateTimeout time.Duration
	// AdminUserID is the single privileged identity. Zero disables all
	// privileged commands.
	AdminUserID int64
}

// Engine processes normalized inbound messages: access gate, command
// dispatch, and the dialogue round-trip against the provider chain.
type Engine struct {
	gate      *access.Gate
	store     Store
	generator Generator
	cfg       Config
	logger    *slog.Logger
	startedAt time.Time
}

// New creates an engine. MaxTokens and GenerateTimeout get defaults when
// unset.
func New(gate *access.Gate, st Store, gen Generator, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 800
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = 30 * time.Second
	}
	return &Engine{
		gate:      gate,
		store:     st,
		generator: gen,
		cfg:       cfg,
		logger:    logger.With("component", "engine"),
		startedAt: time.Now(),
	}
}

// HandleMessage runs one inbound message through the relay. A nil reply
// with nil error means the message was dropped (malformed payload); the
// transport acknowledges it and sends nothing.
func (e *Engine) HandleMessage(ctx context.Context, msg IncomingMessage) (*OutgoingMessage, error) {
	if msg.ChatID == 0 || msg.UserID == 0 || strings.TrimSpace(msg.Text) == "" {
		e.logger.Debug("dropping malformed message",
			"chat_id", msg.ChatID,
			"user_id", msg.UserID)
		return nil, nil
	}

	identity := access.Identity{UserID: msg.UserID, Username: msg.Username}
	if !e.gate.Authorize(identity) {
		e.logger.Warn("access denied",
			"user_id", msg.UserID,
			"username", msg.Username)
		return &OutgoingMessage{ChatID: msg.ChatID, Text: denialText(msg.Text)}, nil
	}

	cmd := ParseCommand(msg.Text)
	if cmd.Kind == CmdNone {
		return e.dialogue(ctx, msg)
	}
	return e.dispatch(ctx, msg, cmd), nil
}

// dialogue is the non-command round-trip: record the user turn, build the
// prompt from the state before this message, generate, degrade on provider
// failure, record the assistant turn, reply.
func (e *Engine) dialogue(ctx context.Context, msg IncomingMessage) (*OutgoingMessage, error) {
	_, before, err := e.store.SnapshotFor(msg.UserID)
	if err != nil && err != store.ErrNotFound {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	e.store.RecordUserTurn(msg.UserID, msg.Username, msg.Text)

	prompt := BuildPrompt(PromptInput{
		Style:    style.Classify(msg.Text),
		History:  before,
		UserText: msg.Text,
	})

	genCtx, cancel := context.WithTimeout(ctx, e.cfg.GenerateTimeout)
	defer cancel()

	reply, err := e.generator.Generate(genCtx, prompt, e.cfg.MaxTokens)
	if err != nil {
		e.logger.Error("generation failed, using local fallback",
			"user_id", msg.UserID,
			"error", err)
		reply = provider.FallbackReply(msg.Text)
	}

	if e.store.DevMode() && e.isAdmin(msg.UserID) {
		reply += "\n\n--- dev ---\n" + promptExcerpt(prompt)
	}

	e.store.RecordAssistantTurn(msg.UserID, reply)
	return &OutgoingMessage{ChatID: msg.ChatID, Text: reply, RichFormatting: true}, nil
}

// dispatch routes a decoded command to its handler. Command handlers read
// and write the store directly; only /analyze ever touches the provider.
func (e *Engine) dispatch(ctx context.Context, msg IncomingMessage, cmd Command) *OutgoingMessage {
	reply := func(text string, rich bool) *OutgoingMessage {
		return &OutgoingMessage{ChatID: msg.ChatID, Text: text, RichFormatting: rich}
	}

	switch cmd.Kind {
	case CmdStart:
		return reply(startText(msg.Text), true)
	case CmdHelp:
		return reply(helpText, false)
	case CmdProfile:
		return reply(e.profileText(msg.UserID), false)
	case CmdPlan:
		if cmd.Arg == "" {
			return reply("Usage: /plan <goal>, optionally with a duration like \"10 days\".", false)
		}
		plan := buildPlan(cmd.Arg)
		e.store.AppendPlan(msg.UserID, plan)
		return reply(renderPlan(plan), false)
	case CmdAnalyze:
		if cmd.Arg == "" {
			return reply("Usage: /analyze <text>", false)
		}
		return reply(e.analyze(ctx, cmd.Arg), false)
	case CmdSystem:
		if !e.isAdmin(msg.UserID) {
			e.logger.Warn("unprivileged /system attempt", "user_id", msg.UserID)
			return reply("This command is restricted to the operator.", false)
		}
		return reply(e.system(cmd.Sub), false)
	case CmdUnknown:
		return reply("Unknown command. Try /help.", false)
	default:
		return reply("Unknown command. Try /help.", false)
	}
}

// analyze asks the provider for a short summary and degrades to a local
// truncation when the provider is unavailable.
func (e *Engine) analyze(ctx context.Context, text string) string {
	genCtx, cancel := context.WithTimeout(ctx, e.cfg.GenerateTimeout)
	defer cancel()

	prompt := "Summarize the following text in two or three sentences, in its own language:\n\n" + text
	summary, err := e.generator.Generate(genCtx, prompt, e.cfg.MaxTokens)
	if err != nil {
		e.logger.Warn("analyze generation failed, using truncation", "error", err)
		return "Summary (truncated): " + truncateRunes(text, 200)
	}
	return summary
}

// system handles /system subcommands for the privileged identity.
func (e *Engine) system(sub string) string {
	switch sub {
	case SysStatus:
		profiles := e.store.ListProfiles()
		total := 0
		for _, p := range profiles {
			total += p.MessageCount
		}
		return fmt.Sprintf("users: %d\nmessages: %d\ndev mode: %t\nuptime: %s",
			len(profiles), total, e.store.DevMode(), time.Since(e.startedAt).Round(time.Second))
	case SysSave:
		if err := e.store.Flush(); err != nil {
			return fmt.Sprintf("snapshot save failed: %v", err)
		}
		return "snapshot saved"
	case SysClearAll:
		e.store.ClearAll()
		return "all profiles and histories cleared"
	case SysDev:
		if e.store.ToggleDevMode() {
			return "dev mode enabled"
		}
		return "dev mode disabled"
	default:
		return "Usage: /system status|save|clearall|dev"
	}
}

// profileText renders the caller's own profile.
func (e *Engine) profileText(userID int64) string {
	profile, history, err := e.store.SnapshotFor(userID)
	if err != nil {
		return "No profile yet. Send me a message first."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Style: %s\nMessages: %d\nHistory: %d turns\n", profile.Style, profile.MessageCount, len(history))
	if len(profile.Plans) > 0 {
		fmt.Fprintf(&b, "Plans (%d):\n", len(profile.Plans))
		for _, p := range profile.Plans {
			fmt.Fprintf(&b, "• %s (%d days, %d steps)\n", p.Goal, p.Days, len(p.Steps))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// isAdmin reports whether userID is the configured privileged identity.
func (e *Engine) isAdmin(userID int64) bool {
	return e.cfg.AdminUserID != 0 && userID == e.cfg.AdminUserID
}

const helpText = `Commands:
/start - greeting
/help - this message
/profile - your style, counters, and plans
/plan <goal> - build a day-by-day plan (add "10 days" for a duration)
/analyze <text> - short summary of a text
Anything else is answered by the assistant.`

// denialText localizes the access-denied reply.
func denialText(text string) string {
	if detectLang(text) == langRussian {
		return "Доступ запрещен."
	}
	return "Access denied."
}

// startText localizes the /start greeting.
func startText(text string) string {
	if detectLang(text) == langRussian {
		return "**Synapse** активирован. Напиши сообщение и я отвечу."
	}
	return "**Synapse** activated. Send a message and I'll reply."
}

// truncateRunes shortens s to at most n runes, appending "..." when cut.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
