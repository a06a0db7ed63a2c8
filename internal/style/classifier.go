// ABOUTME: Style classifier mapping message text to a coarse conversational tag
// ABOUTME: Ordered keyword groups, first match wins, neutral when nothing matches

package style

import "strings"

// Tag is a coarse classification of a user's message style.
type Tag string

// The closed set of tags. Classify never returns anything outside this set.
const (
	TagBusiness      Tag = "business"
	TagCreative      Tag = "creative"
	TagPhilosophical Tag = "philosophical"
	TagEnergetic     Tag = "energetic"
	TagNeutral       Tag = "neutral"
)

// keywordGroup pairs a tag with the substrings that select it.
type keywordGroup struct {
	tag      Tag
	keywords []string
}

// groups is evaluated in order; earlier groups take priority so ties are
// impossible by construction. Keywords cover English and Russian since the
// relay historically served both.
var groups = []keywordGroup{
	{TagBusiness, []string{
		"business", "money", "price", "sell", "revenue", "market", "client",
		"бизнес", "деньги", "цена", "продаж", "прибыл", "клиент",
	}},
	{TagCreative, []string{
		"create", "design", "draw", "story", "music", "idea", "art",
		"созда", "дизайн", "рису", "истори", "музык", "иде", "творч",
	}},
	{TagPhilosophical, []string{
		"why", "meaning", "life", "death", "soul", "exist", "purpose",
		"почему", "смысл", "жизн", "смерт", "душ", "существ",
	}},
	{TagEnergetic, []string{
		"now", "urgent", "fast", "quick", "asap", "hurry",
		"сейчас", "срочно", "быстр", "скорее",
	}},
}

// Classify maps text to a style tag. Deterministic, case-insensitive
// substring matching; the first matching group wins and no match yields
// TagNeutral.
func Classify(text string) Tag {
	lower := strings.ToLower(text)
	for _, g := range groups {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				return g.tag
			}
		}
	}
	return TagNeutral
}

// Valid reports whether t belongs to the closed tag set. Used when loading
// snapshots written by older builds.
func Valid(t Tag) bool {
	switch t {
	case TagBusiness, TagCreative, TagPhilosophical, TagEnergetic, TagNeutral:
		return true
	}
	return false
}
