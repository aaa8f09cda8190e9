package api

import (
	"errors"

	"codeberg.org/snonux/flashcards/internal/card"
	"codeberg.org/snonux/flashcards/internal/remote"
)

// cardDTO is the wire representation of a card
type cardDTO struct {
	ID        string   `json:"_id"`
	Front     string   `json:"front"`
	Back      string   `json:"back"`
	MainWords []string `json:"mainWords"`
	Notes     string   `json:"notes"`
	Tags      []string `json:"tags"`
	Files     []string `json:"files"`
	TTS       bool     `json:"tts"`
}

type listResponse struct {
	Cards []cardDTO `json:"cards"`
}

// createRequest asks the backend to store a card and generate its audio
type createRequest struct {
	Front     string   `json:"front"`
	Back      string   `json:"back"`
	MainWords []string `json:"mainWords"`
	Notes     string   `json:"notes"`
	Tags      []string `json:"tags"`
	TTS       bool     `json:"tts"`
}

// updateRequest changes card content without touching its audio
type updateRequest struct {
	Front     string   `json:"front"`
	Back      string   `json:"back"`
	MainWords []string `json:"mainWords"`
	Notes     string   `json:"notes"`
	Tags      []string `json:"tags"`
}

type ttsRequest struct {
	Front string `json:"front"`
}

type cardFileRequest struct {
	ID string `json:"_id"`
}

type ttsResponse struct {
	Front string   `json:"front"`
	Files []string `json:"files"`
}

func newCreateRequest(f card.Fields) createRequest {
	return createRequest{
		Front:     f.Front,
		Back:      f.Back,
		MainWords: nonNil(f.MainWords),
		Notes:     f.Notes,
		Tags:      nonNil(f.Tags),
		TTS:       true,
	}
}

func newUpdateRequest(f card.Fields) updateRequest {
	return updateRequest{
		Front:     f.Front,
		Back:      f.Back,
		MainWords: nonNil(f.MainWords),
		Notes:     f.Notes,
		Tags:      nonNil(f.Tags),
	}
}

// toCard maps a stored card; a card without an ID is a malformed answer
func (d cardDTO) toCard() (card.Card, error) {
	if d.ID == "" {
		return card.Card{}, &remote.DecodeError{Service: serviceName, Err: errors.New("card without _id")}
	}
	return card.Card{
		ID: d.ID,
		Fields: card.Fields{
			Front:     d.Front,
			Back:      d.Back,
			MainWords: nonNil(d.MainWords),
			Notes:     d.Notes,
			Tags:      nonNil(d.Tags),
		},
		Files: nonNil(d.Files),
	}, nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
