// Package store keeps the client-side copy of the card collection. The
// collection is replaced wholesale by a load and kept in sync afterwards by
// reconciling every server-confirmed create, update and delete.
//
// A Store is not safe for concurrent use. All calls must come from the
// goroutine owning it, usually a dispatch.Loop.
package store

import (
	"context"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"codeberg.org/snonux/flashcards/internal/card"
)

// Fetcher lists the cards stored by the backend
type Fetcher interface {
	ListCards(ctx context.Context) ([]card.Card, error)
}

// Store holds the cards in display order, most recently created first
type Store struct {
	fetcher Fetcher
	logger  *zap.Logger

	cards  []card.Card
	loaded bool
}

// New creates an empty, not loaded store
func New(fetcher Fetcher, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Load fetches all cards unless they are loaded already and force is false.
// On failure the collection becomes a single error card and the error is
// returned.
func (s *Store) Load(ctx context.Context, force bool) error {
	if !s.NeedsLoad(force) {
		return nil
	}
	cards, err := s.fetcher.ListCards(ctx)
	return s.ApplyLoad(cards, err)
}

// NeedsLoad reports whether a load with force would fetch. Callers fetching
// elsewhere check it before handing the result to ApplyLoad.
func (s *Store) NeedsLoad(force bool) bool {
	return force || !s.loaded
}

// ApplyLoad replaces the collection with the result of a fetch done elsewhere
func (s *Store) ApplyLoad(cards []card.Card, err error) error {
	if err != nil {
		s.logger.Warn("Failed to load cards", zap.Error(err))
		s.cards = []card.Card{card.ErrorCard(err)}
		s.loaded = false
		return err
	}

	reversed := make([]card.Card, len(cards))
	for i, c := range cards {
		reversed[len(cards)-1-i] = c
	}
	s.cards = reversed
	s.loaded = true

	s.logger.Debug("Loaded cards", zap.Int("count", len(reversed)))
	return nil
}

// Reconcile merges a server-confirmed mutation into the collection. A card
// missing under Update or Delete is logged and ignored.
func (s *Store) Reconcile(c card.Card, action card.UpdateAction) {
	switch action {
	case card.Create:
		s.cards = append([]card.Card{c}, s.cards...)

	case card.Update:
		i := s.indexOf(c.ID)
		if i < 0 {
			s.notFound(c, action)
			return
		}
		s.cards[i] = c

	case card.Delete:
		i := s.indexOf(c.ID)
		if i < 0 {
			s.notFound(c, action)
			return
		}
		s.cards = append(s.cards[:i:i], s.cards[i+1:]...)

	default:
		s.logger.Warn("Unknown card action", zap.Stringer("action", action))
	}
}

// Filter returns the cards whose search text contains query, ignoring case.
// An empty query returns every card.
func (s *Store) Filter(query string) []card.Card {
	if query == "" {
		return s.Cards()
	}

	query = strings.ToLower(query)
	result := []card.Card{}
	for _, c := range s.cards {
		if strings.Contains(c.SearchText(), query) {
			result = append(result, c)
		}
	}
	return result
}

// Cards returns a copy of the collection
func (s *Store) Cards() []card.Card {
	return append([]card.Card{}, s.cards...)
}

// Find returns the card with id
func (s *Store) Find(id string) (card.Card, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.cards[i], true
	}
	return card.Card{}, false
}

// Len returns the number of cards, synthetic cards included
func (s *Store) Len() int {
	return len(s.cards)
}

// Loaded reports whether the last load succeeded
func (s *Store) Loaded() bool {
	return s.loaded
}

// Shuffle puts the cards in random order
func (s *Store) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(s.cards), func(i, j int) {
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	})
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, c := range s.cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) notFound(c card.Card, action card.UpdateAction) {
	s.logger.Warn("Card not found",
		zap.String("id", c.ID),
		zap.Stringer("action", action))
}
