package card

import (
	"strings"

	"codeberg.org/snonux/flashcards/internal"
)

// errorCardFront is shown as the front of a card carrying an error message
const errorCardFront = "ごめんなさい！"

// Fields holds the user-editable content of a card. It is also the draft
// sent to the backend when creating or updating a card.
type Fields struct {
	Front     string   // Japanese sentence
	Back      string   // Translation
	MainWords []string // Key vocabulary, each "word" or "word:link"
	Notes     string   // Free text, may start with an assist directive
	Tags      []string
}

// Clean returns a copy with all strings trimmed and empty list entries removed
func (f Fields) Clean() Fields {
	return Fields{
		Front:     internal.CleanString(f.Front),
		Back:      internal.CleanString(f.Back),
		MainWords: cleanList(f.MainWords),
		Notes:     internal.CleanString(f.Notes),
		Tags:      cleanList(f.Tags),
	}
}

// Card is a flashcard stored by the backend
type Card struct {
	ID string // Server-assigned, empty only for synthetic message cards
	Fields
	Files []string // Generated audio files, one per playable segment
}

// SearchText returns the lowercased text used to filter cards
func (c Card) SearchText() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(c.Front))
	b.WriteString(" ")
	b.WriteString(strings.ToLower(c.Back))
	b.WriteString(" ")
	b.WriteString(strings.ToLower(c.Notes))
	b.WriteString(" ")
	b.WriteString(strings.ToLower(strings.Join(c.Tags, ". ")))
	b.WriteString(".")
	return b.String()
}

// HasFile reports whether index addresses one of the card's audio files
func (c Card) HasFile(index int) bool {
	return index >= 0 && index < len(c.Files)
}

// IsSynthetic reports whether the card was made up locally to show a message
func (c Card) IsSynthetic() bool {
	return c.ID == ""
}

// UpdateAction tells the store how to merge a server response
type UpdateAction int

const (
	Create UpdateAction = iota
	Update
	Delete
)

func (a UpdateAction) String() string {
	switch a {
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// MessageCard creates a dummy card to show a message in the card list
func MessageCard(front, back string) Card {
	return Card{
		Fields: Fields{
			Front:     front,
			Back:      back,
			MainWords: []string{},
			Tags:      []string{},
		},
		Files: []string{},
	}
}

// ErrorCard creates a dummy card showing an error message
func ErrorCard(err error) Card {
	return MessageCard(errorCardFront, err.Error())
}

func cleanList(items []string) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		if item = internal.CleanString(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
