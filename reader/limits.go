package reader

import "strings"

// DefaultLimitPhrases is the recognized set of quota-limit phrases. The list
// is heuristic and English-only; callers can override it through each
// family's Reader, which is why it is data rather than logic.
var DefaultLimitPhrases = []string{
	"limit reached",
	"usage limit",
	"rate limit",
}

// MatchLimitPhrase reports whether text contains any of the phrases,
// case-insensitively.
func MatchLimitPhrase(text string, phrases []string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// WeeklyLimitPhrase reports whether a limit hint refers to the weekly quota
// rather than the rolling session window.
func WeeklyLimitPhrase(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "week")
}
