package internal

import (
	"strings"
	"unicode"
)

// Version is the current flashcards version
const Version = "0.4.0"

// CleanString trims surrounding whitespace and newlines from user input
func CleanString(s string) string {
	return strings.TrimSpace(s)
}

// SplitWords splits free text into words separated by runs of spaces.
// Used for the main words and tags input fields. Japanese list separators
// (、) are accepted as well, since edited cards join main words with them.
func SplitWords(s string) []string {
	return strings.FieldsFunc(CleanString(s), func(r rune) bool {
		return unicode.IsSpace(r) || r == '、'
	})
}
