package artifact

import (
	"strings"
	"unicode"
)

// SnakeCase lower-cases s and joins its alphanumeric runs with '_'.
// "Content Researcher" and "content-researcher" both become
// "content_researcher".
func SnakeCase(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, "_")
}
