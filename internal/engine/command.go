// ABOUTME: Command decoding from raw message text into a tagged variant
// ABOUTME: Decoded once, then matched exhaustively; no chained prefix checks downstream

package engine

import (
	"strings"
	"unicode"
)

// CommandKind enumerates the commands the dispatcher understands.
type CommandKind int

const (
	// CmdNone marks a regular dialogue message, not a command.
	CmdNone CommandKind = iota
	CmdStart
	CmdHelp
	CmdProfile
	CmdPlan
	CmdAnalyze
	CmdSystem
	// CmdUnknown is any other slash-prefixed text.
	CmdUnknown
)

// System subcommands.
const (
	SysStatus   = "status"
	SysSave     = "save"
	SysClearAll = "clearall"
	SysDev      = "dev"
)

// Command is the decoded form of a message. Arg carries the free text after
// the command name (plan goal, analyze text); Sub carries the /system
// subcommand.
type Command struct {
	Kind CommandKind
	Arg  string
	Sub  string
}

// ParseCommand decodes text into a Command. Matching is case-insensitive on
// the command name; everything after the first whitespace is the argument.
// Text not starting with "/" decodes to CmdNone.
func ParseCommand(text string) Command {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return Command{Kind: CmdNone}
	}

	name, arg := splitWord(trimmed)

	// Telegram clients append "@botname" to commands in groups.
	if at := strings.Index(name, "@"); at > 0 {
		name = name[:at]
	}

	switch strings.ToLower(name) {
	case "/start":
		return Command{Kind: CmdStart}
	case "/help":
		return Command{Kind: CmdHelp}
	case "/profile":
		return Command{Kind: CmdProfile}
	case "/plan":
		return Command{Kind: CmdPlan, Arg: arg}
	case "/analyze":
		return Command{Kind: CmdAnalyze, Arg: arg}
	case "/system":
		sub, rest := splitWord(arg)
		return Command{Kind: CmdSystem, Sub: strings.ToLower(sub), Arg: rest}
	default:
		return Command{Kind: CmdUnknown, Arg: arg}
	}
}

// splitWord cuts s at the first whitespace rune, not just at a space.
// Telegram clients insert tabs and non-breaking spaces on some platforms.
func splitWord(s string) (string, string) {
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i], strings.TrimSpace(s[i:])
	}
	return s, ""
}
