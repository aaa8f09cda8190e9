package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"codeberg.org/snonux/flashcards/internal/audio"
	"codeberg.org/snonux/flashcards/internal/card"
)

// ListCards returns every card known to the backend, in backend order
func (c *Client) ListCards(ctx context.Context) ([]card.Card, error) {
	var resp listResponse
	if err := c.call(ctx, http.MethodGet, "cards/list", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	cards := make([]card.Card, 0, len(resp.Cards))
	for _, dto := range resp.Cards {
		cd, err := dto.toCard()
		if err != nil {
			return nil, fmt.Errorf("failed to list cards: %w", err)
		}
		cards = append(cards, cd)
	}
	return cards, nil
}

// CreateCard stores a new card and has the backend generate its audio
func (c *Client) CreateCard(ctx context.Context, draft card.Fields) (card.Card, error) {
	if err := card.Validate(draft); err != nil {
		return card.Card{}, err
	}

	var dto cardDTO
	if err := c.call(ctx, http.MethodPost, "cards", newCreateRequest(draft), &dto); err != nil {
		return card.Card{}, fmt.Errorf("failed to create card: %w", err)
	}
	return mapCard("create", dto)
}

// UpdateCard replaces the content of a stored card. Audio is not regenerated.
func (c *Client) UpdateCard(ctx context.Context, id string, draft card.Fields) (card.Card, error) {
	if err := card.ValidateID(id); err != nil {
		return card.Card{}, err
	}
	if err := card.Validate(draft); err != nil {
		return card.Card{}, err
	}

	var dto cardDTO
	if err := c.call(ctx, http.MethodPut, cardPath(id), newUpdateRequest(draft), &dto); err != nil {
		return card.Card{}, fmt.Errorf("failed to update card %s: %w", id, err)
	}
	return mapCard("update", dto)
}

// DeleteCard removes a card and returns it as the backend last stored it
func (c *Client) DeleteCard(ctx context.Context, id string) (card.Card, error) {
	if err := card.ValidateID(id); err != nil {
		return card.Card{}, err
	}

	var dto cardDTO
	if err := c.call(ctx, http.MethodDelete, cardPath(id), nil, &dto); err != nil {
		return card.Card{}, fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return mapCard("delete", dto)
}

// GenerateAudioForText generates speech for a sentence that is not a card yet
func (c *Client) GenerateAudioForText(ctx context.Context, text string) ([]string, error) {
	var resp ttsResponse
	if err := c.call(ctx, http.MethodPost, "cards/tts", ttsRequest{Front: text}, &resp); err != nil {
		return nil, fmt.Errorf("failed to generate audio: %w", err)
	}
	return nonNil(resp.Files), nil
}

// GenerateAudioForCardFile (re)generates the audio file in slot fileIndex of
// a stored card
func (c *Client) GenerateAudioForCardFile(ctx context.Context, id string, fileIndex int) ([]string, error) {
	if err := card.ValidateID(id); err != nil {
		return nil, err
	}
	if fileIndex < 0 {
		return nil, fmt.Errorf("invalid file index: %d", fileIndex)
	}

	var resp ttsResponse
	path := fmt.Sprintf("cards/audio/%d", fileIndex)
	if err := c.call(ctx, http.MethodPost, path, cardFileRequest{ID: id}, &resp); err != nil {
		return nil, fmt.Errorf("failed to generate audio file %d of card %s: %w", fileIndex, id, err)
	}
	return nonNil(resp.Files), nil
}

// AudioURL returns the fully qualified URL of an audio file
func (c *Client) AudioURL(file string) string {
	return c.baseURL + "/audio/" + strings.TrimLeft(file, "/")
}

// PlayAudio hands the URL of an audio file to the player
func (c *Client) PlayAudio(ctx context.Context, player audio.Player, file string) error {
	if file == "" {
		return fmt.Errorf("no audio file to play")
	}
	return player.Play(ctx, c.AudioURL(file))
}

func cardPath(id string) string {
	return "cards/" + url.PathEscape(id)
}

func mapCard(op string, dto cardDTO) (card.Card, error) {
	cd, err := dto.toCard()
	if err != nil {
		return card.Card{}, fmt.Errorf("failed to %s card: %w", op, err)
	}
	return cd, nil
}
