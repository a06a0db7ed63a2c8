// ABOUTME: Crude language detection for localized canned replies
// ABOUTME: Presence of Cyrillic selects Russian, everything else English

package engine

// langRussian and langEnglish are the two reply languages the relay knows.
const (
	langRussian = "ru"
	langEnglish = "en"
)

// detectLang returns "ru" when the text contains any Cyrillic rune.
func detectLang(text string) string {
	for _, r := range text {
		if r >= 0x0400 && r <= 0x04FF {
			return langRussian
		}
	}
	return langEnglish
}
