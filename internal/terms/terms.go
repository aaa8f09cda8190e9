package terms

import (
	"net/url"
	"strings"

	"github.com/rivo/uniseg"
)

const (
	// DefaultMaxLineChars fits a phone-width line at the detail view font size
	DefaultMaxLineChars = 11

	// DictionaryBaseURL is prefixed to a term link
	DictionaryBaseURL = "https://nihongo-app.com/dictionary/word/"

	linkSeparator = ":"
	clauseMarks   = "、。"
)

// Term is a span of a sentence. A term without link is plain text.
type Term struct {
	Word string
	Link string
}

// IsLink reports whether the term points to a dictionary entry
func (t Term) IsLink() bool {
	return t.Link != ""
}

// Len returns the number of user-perceived characters in the word
func (t Term) Len() int {
	return uniseg.GraphemeClusterCount(t.Word)
}

// TrailingPadding reports whether the term gets the default right padding.
// Plain text ending in "、" or "。" already carries visual space.
func (t Term) TrailingPadding() bool {
	if t.IsLink() {
		return true
	}
	return !endsInClauseMark(t.Word)
}

// DictionaryURL returns the dictionary page of the term, or "" for plain text
func (t Term) DictionaryURL() string {
	if !t.IsLink() {
		return ""
	}
	return DictionaryURL(t.Link)
}

// DictionaryURL returns the dictionary page for link
func DictionaryURL(link string) string {
	return DictionaryBaseURL + url.PathEscape(link)
}

// Candidates returns the strings to link in sentence. These are the main words
// when given, otherwise the non-empty clauses of the sentence.
func Candidates(sentence string, mainWords []string) []string {
	if len(mainWords) > 0 {
		return mainWords
	}
	return strings.FieldsFunc(sentence, func(r rune) bool {
		return strings.ContainsRune(clauseMarks, r)
	})
}

// ParseTerms maps "word" and "word:link" candidates to linked terms. Empty
// pieces around a colon are ignored, so "a:b:c" links "a" to "b" and a
// candidate without two non-empty pieces links to itself.
func ParseTerms(candidates []string) []Term {
	result := make([]Term, 0, len(candidates))
	for _, candidate := range candidates {
		var pieces []string
		for _, piece := range strings.Split(candidate, linkSeparator) {
			if piece != "" {
				pieces = append(pieces, piece)
			}
		}

		if len(pieces) > 1 {
			result = append(result, Term{Word: pieces[0], Link: pieces[1]})
		} else {
			result = append(result, Term{Word: candidate, Link: candidate})
		}
	}
	return result
}

// Split partitions sentence around the given terms, which are expected in
// left to right order. A term not found after the previous match is skipped.
// Text between matches is returned as plain terms.
func Split(sentence string, mainTerms []Term) []Term {
	var result []Term
	cursor := 0

	for _, term := range mainTerms {
		if term.Word == "" {
			continue
		}
		offset := strings.Index(sentence[cursor:], term.Word)
		if offset < 0 {
			// Missing, or only present before the cursor
			continue
		}

		start := cursor + offset
		if start > cursor {
			result = append(result, Term{Word: sentence[cursor:start]})
		}
		result = append(result, term)
		cursor = start + len(term.Word)
	}

	if cursor < len(sentence) {
		result = append(result, Term{Word: sentence[cursor:]})
	}
	return result
}

// Wrap packs terms greedily into lines of at most maxChars characters. A term
// longer than maxChars gets a line of its own and is never split. Empty lines
// are never returned.
func Wrap(terms []Term, maxChars int) [][]Term {
	var lines [][]Term
	var current []Term
	count := 0

	for _, term := range terms {
		n := term.Len()
		if count+n <= maxChars {
			current = append(current, term)
			count += n
			continue
		}

		if len(current) > 0 {
			lines = append(lines, current)
		}
		current = []Term{term}
		count = n
	}

	if len(current) > 0 {
		lines = append(lines, current)
	}
	return lines
}

// Build segments sentence by its main words and wraps the result
func Build(sentence string, mainWords []string, maxChars int) [][]Term {
	if sentence == "" {
		return nil
	}
	if maxChars < 1 {
		maxChars = DefaultMaxLineChars
	}

	mainTerms := ParseTerms(Candidates(sentence, mainWords))
	return Wrap(Split(sentence, mainTerms), maxChars)
}

// Flatten joins lines back into one term sequence
func Flatten(lines [][]Term) []Term {
	var result []Term
	for _, line := range lines {
		result = append(result, line...)
	}
	return result
}

func endsInClauseMark(word string) bool {
	for _, mark := range clauseMarks {
		if strings.HasSuffix(word, string(mark)) {
			return true
		}
	}
	return false
}
