package llmclient

import (
	"strings"
	"unicode/utf8"
)

// CountTokens estimates the token count of a prompt for request logging.
// It takes the larger of the word count and runes/4.
func CountTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	byRunes := (utf8.RuneCountInString(text) + 3) / 4
	if byRunes > words {
		return byRunes
	}
	return words
}
