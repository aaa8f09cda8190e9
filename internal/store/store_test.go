package store

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/flashcards/internal/api"
	"codeberg.org/snonux/flashcards/internal/card"
	"codeberg.org/snonux/flashcards/internal/remote"
	"codeberg.org/snonux/flashcards/internal/testutil"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) ListCards(ctx context.Context) ([]card.Card, error) {
	args := m.Called(ctx)
	cards, _ := args.Get(0).([]card.Card)
	return cards, args.Error(1)
}

func newCard(id, front string) card.Card {
	return card.Card{
		ID:     id,
		Fields: card.Fields{Front: front, MainWords: []string{}, Tags: []string{}},
		Files:  []string{},
	}
}

func ids(cards []card.Card) []string {
	result := make([]string, 0, len(cards))
	for _, c := range cards {
		result = append(result, c.ID)
	}
	return result
}

// loadedStore returns a store holding c, b, a (backend order a, b, c)
func loadedStore(t *testing.T) *Store {
	t.Helper()
	s := New(nil, testutil.NewLogger(t))
	require.NoError(t, s.ApplyLoad([]card.Card{
		newCard("a", "猫が好きです。"),
		newCard("b", "春、夏、秋、冬"),
		newCard("c", "今日はいい天気ですね。"),
	}, nil))
	return s
}

func TestLoad_ReversesBackendOrder(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("ListCards", mock.Anything).Return([]card.Card{newCard("a", "1"), newCard("b", "2"), newCard("c", "3")}, nil).Once()

	s := New(fetcher, testutil.NewLogger(t))
	require.NoError(t, s.Load(context.Background(), false))

	assert.True(t, s.Loaded())
	assert.Equal(t, []string{"c", "b", "a"}, ids(s.Cards()))
	fetcher.AssertExpectations(t)
}

func TestLoad_SkipsWhenLoaded(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("ListCards", mock.Anything).Return([]card.Card{newCard("a", "1")}, nil)

	s := New(fetcher, testutil.NewLogger(t))
	require.NoError(t, s.Load(context.Background(), false))
	require.NoError(t, s.Load(context.Background(), false))
	fetcher.AssertNumberOfCalls(t, "ListCards", 1)

	require.NoError(t, s.Load(context.Background(), true))
	fetcher.AssertNumberOfCalls(t, "ListCards", 2)
}

func TestLoad_ErrorBecomesErrorCard(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("ListCards", mock.Anything).Return(nil, errors.New("connection refused"))

	s := New(fetcher, testutil.NewLogger(t))
	err := s.Load(context.Background(), false)
	require.Error(t, err)

	require.Equal(t, 1, s.Len())
	errCard := s.Cards()[0]
	assert.True(t, errCard.IsSynthetic())
	assert.Contains(t, errCard.Back, "connection refused")
	assert.False(t, s.Loaded())
}

func TestLoad_RetriesAfterError(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("ListCards", mock.Anything).Return(nil, errors.New("down")).Once()
	fetcher.On("ListCards", mock.Anything).Return([]card.Card{newCard("a", "1")}, nil).Once()

	s := New(fetcher, testutil.NewLogger(t))
	require.Error(t, s.Load(context.Background(), false))
	require.NoError(t, s.Load(context.Background(), false), "a failed load is not cached")

	assert.Equal(t, []string{"a"}, ids(s.Cards()))
	assert.True(t, s.Loaded())
}

func TestNeedsLoad(t *testing.T) {
	s := New(&mockFetcher{}, testutil.NewLogger(t))
	assert.True(t, s.NeedsLoad(false))
	assert.True(t, s.NeedsLoad(true))

	require.NoError(t, s.ApplyLoad([]card.Card{newCard("a", "1")}, nil))
	assert.False(t, s.NeedsLoad(false))
	assert.True(t, s.NeedsLoad(true))

	require.Error(t, s.ApplyLoad(nil, errors.New("down")))
	assert.True(t, s.NeedsLoad(false))
}

func TestLoad_ErrorReplacesPreviousCards(t *testing.T) {
	s := loadedStore(t)

	err := s.ApplyLoad(nil, errors.New("boom"))
	require.Error(t, err)
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Loaded())
}

func TestLoad_HTTP500(t *testing.T) {
	backend := testutil.NewFakeBackend(t, "token")
	backend.FailWith(http.MethodGet, "/cards/list", http.StatusInternalServerError)

	client, err := api.NewClient(&api.Config{BaseURL: backend.URL(), Token: "token"}, nil)
	require.NoError(t, err)

	s := New(client, testutil.NewLogger(t))
	err = s.Load(context.Background(), false)

	code, ok := remote.StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, code)

	cards := s.Cards()
	require.Len(t, cards, 1)
	assert.True(t, cards[0].IsSynthetic())
	assert.False(t, s.Loaded())
}

func TestLoad_EmptyBackend(t *testing.T) {
	s := New(nil, testutil.NewLogger(t))
	require.NoError(t, s.ApplyLoad([]card.Card{}, nil))

	assert.True(t, s.Loaded())
	assert.Equal(t, 0, s.Len())
	assert.NotNil(t, s.Cards())
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name   string
		card   card.Card
		action card.UpdateAction
		want   []string
	}{
		{
			name:   "create goes first",
			card:   newCard("d", "新しい"),
			action: card.Create,
			want:   []string{"d", "c", "b", "a"},
		},
		{
			name:   "update in place",
			card:   newCard("b", "changed"),
			action: card.Update,
			want:   []string{"c", "b", "a"},
		},
		{
			name:   "delete keeps order",
			card:   newCard("b", ""),
			action: card.Delete,
			want:   []string{"c", "a"},
		},
		{
			name:   "delete first",
			card:   newCard("c", ""),
			action: card.Delete,
			want:   []string{"b", "a"},
		},
		{
			name:   "delete last",
			card:   newCard("a", ""),
			action: card.Delete,
			want:   []string{"c", "b"},
		},
		{
			name:   "update unknown id",
			card:   newCard("zzz", "x"),
			action: card.Update,
			want:   []string{"c", "b", "a"},
		},
		{
			name:   "delete unknown id",
			card:   newCard("zzz", ""),
			action: card.Delete,
			want:   []string{"c", "b", "a"},
		},
		{
			name:   "unknown action",
			card:   newCard("a", ""),
			action: card.UpdateAction(42),
			want:   []string{"c", "b", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := loadedStore(t)
			s.Reconcile(tt.card, tt.action)
			assert.Equal(t, tt.want, ids(s.Cards()))
		})
	}
}

func TestReconcile_UpdateReplacesContent(t *testing.T) {
	s := loadedStore(t)
	updated := newCard("b", "春と夏")
	updated.Files = []string{"test/b-0.mp3"}

	s.Reconcile(updated, card.Update)

	got, ok := s.Find("b")
	require.True(t, ok)
	assert.Equal(t, updated, got)
	assert.Equal(t, "b", s.Cards()[1].ID)
}

func TestReconcile_CreateOnEmpty(t *testing.T) {
	s := New(nil, testutil.NewLogger(t))
	s.Reconcile(newCard("a", "猫"), card.Create)

	assert.Equal(t, []string{"a"}, ids(s.Cards()))
}

func TestReconcile_DoesNotAliasCopies(t *testing.T) {
	s := loadedStore(t)
	before := s.Cards()

	s.Reconcile(newCard("c", ""), card.Delete)

	assert.Equal(t, []string{"c", "b", "a"}, ids(before))
}

func TestReconcile_DeleteAfterStaleLoad(t *testing.T) {
	s := loadedStore(t)
	s.Reconcile(newCard("b", ""), card.Delete)

	// A load started before the delete completes afterwards
	require.NoError(t, s.ApplyLoad([]card.Card{newCard("a", ""), newCard("b", ""), newCard("c", "")}, nil))
	s.Reconcile(newCard("b", ""), card.Delete)
	s.Reconcile(newCard("b", ""), card.Delete)

	assert.Equal(t, []string{"c", "a"}, ids(s.Cards()))
}

func TestCreateAfterLoad(t *testing.T) {
	backend := testutil.NewFakeBackend(t, "token")
	for _, c := range (&testutil.TestDataGenerator{}).StoredCards() {
		backend.AddCard(c)
	}
	client, err := api.NewClient(&api.Config{BaseURL: backend.URL(), Token: "token"}, nil)
	require.NoError(t, err)

	s := New(client, testutil.NewLogger(t))
	require.NoError(t, s.Load(context.Background(), false))

	created, err := client.CreateCard(context.Background(), card.Fields{Front: "公園に行きましょう。"})
	require.NoError(t, err)
	s.Reconcile(created, card.Create)

	cards := s.Cards()
	require.Len(t, cards, 4)
	assert.Equal(t, created.ID, cards[0].ID)
	assert.Equal(t, []string{"card-c", "card-b", "card-a"}, ids(cards[1:]))
}

func TestFilter(t *testing.T) {
	s := New(nil, testutil.NewLogger(t))
	tagged := newCard("t", "犬")
	tagged.Tags = []string{"Animals", "JLPT5"}
	noted := newCard("n", "寿司")
	noted.Back = "Sushi"
	noted.Notes = "Learned in Osaka"
	require.NoError(t, s.ApplyLoad([]card.Card{
		newCard("a", "猫が好きです。"),
		tagged,
		noted,
	}, nil))

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"n", "t", "a"}},
		{"猫", []string{"a"}},
		{"sushi", []string{"n"}},
		{"SUSHI", []string{"n"}},
		{"osaka", []string{"n"}},
		{"jlpt5", []string{"t"}},
		{"animals. jlpt5", []string{"t"}},
		{"です。", []string{"a"}},
		{"xyz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := s.Filter(tt.query)
			assert.Equal(t, tt.want, ids(got))

			for _, c := range got {
				assert.Contains(t, c.SearchText(), strings.ToLower(tt.query))
			}
			for _, c := range s.Cards() {
				if !containsID(got, c.ID) {
					assert.NotContains(t, c.SearchText(), strings.ToLower(tt.query))
				}
			}
		})
	}
}

func TestFilter_DoesNotChangeCollection(t *testing.T) {
	s := loadedStore(t)
	_ = s.Filter("猫")
	assert.Equal(t, 3, s.Len())
}

func TestFind(t *testing.T) {
	s := loadedStore(t)

	c, ok := s.Find("b")
	assert.True(t, ok)
	assert.Equal(t, "春、夏、秋、冬", c.Front)

	_, ok = s.Find("missing")
	assert.False(t, ok)

	_, ok = s.Find("")
	assert.False(t, ok)
}

func TestShuffle(t *testing.T) {
	s := loadedStore(t)
	s.Shuffle(rand.New(rand.NewSource(1)))

	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids(s.Cards()))
}

func containsID(cards []card.Card, id string) bool {
	for _, c := range cards {
		if c.ID == id {
			return true
		}
	}
	return false
}
