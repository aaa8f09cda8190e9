package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// StoredCard is a card as the fake backend keeps it, in wire format
type StoredCard struct {
	ID        string   `json:"_id"`
	Front     string   `json:"front"`
	Back      string   `json:"back"`
	MainWords []string `json:"mainWords"`
	Notes     string   `json:"notes"`
	Tags      []string `json:"tags"`
	Files     []string `json:"files"`
	TTS       bool     `json:"tts"`
}

// RecordedRequest is a request received by the fake backend
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Body          map[string]any
}

// FakeBackend is an in-memory implementation of the flashcards backend API
type FakeBackend struct {
	Server *httptest.Server
	Token  string

	mu       sync.Mutex
	cards    []StoredCard
	nextID   int
	requests []RecordedRequest
	failures map[string]int
}

// NewFakeBackend starts a fake backend that is closed when the test ends.
// Requests must carry token as bearer token unless token is empty.
func NewFakeBackend(t *testing.T, token string) *FakeBackend {
	t.Helper()

	b := &FakeBackend{
		Token:    token,
		nextID:   1,
		failures: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /cards/list", b.handleList)
	mux.HandleFunc("POST /cards", b.handleCreate)
	mux.HandleFunc("PUT /cards/{id}", b.handleUpdate)
	mux.HandleFunc("DELETE /cards/{id}", b.handleDelete)
	mux.HandleFunc("POST /cards/tts", b.handleTTS)
	mux.HandleFunc("POST /cards/audio/{index}", b.handleCardAudio)
	mux.HandleFunc("GET /audio/{file...}", b.handleAudio)

	b.Server = httptest.NewServer(b.intercept(mux))
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the base URL of the fake backend
func (b *FakeBackend) URL() string {
	return b.Server.URL
}

// AddCard stores a card directly and returns its ID
func (b *FakeBackend) AddCard(c StoredCard) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c.ID == "" {
		c.ID = b.newID()
	}
	b.cards = append(b.cards, normalize(c))
	return c.ID
}

// Cards returns a copy of the stored cards in storage order
func (b *FakeBackend) Cards() []StoredCard {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]StoredCard{}, b.cards...)
}

// FailWith makes every request to method and path answer with status
func (b *FakeBackend) FailWith(method, path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = status
}

// Requests returns all requests received so far
func (b *FakeBackend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest{}, b.requests...)
}

// LastRequest returns the most recent request
func (b *FakeBackend) LastRequest() RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return RecordedRequest{}
	}
	return b.requests[len(b.requests)-1]
}

func (b *FakeBackend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
		}
		if r.Body != nil && r.ContentLength != 0 {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				rec.Body = body
			}
			// Re-encode so handlers can decode again
			data, _ := json.Marshal(rec.Body)
			r.Body = io.NopCloser(bytes.NewReader(data))
		}

		b.mu.Lock()
		b.requests = append(b.requests, rec)
		status, fail := b.failures[r.Method+" "+r.URL.Path]
		b.mu.Unlock()

		if fail {
			http.Error(w, http.StatusText(status), status)
			return
		}
		if b.Token != "" && rec.Authorization != "Bearer "+b.Token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"cards": b.Cards()})
}

func (b *FakeBackend) handleCreate(w http.ResponseWriter, r *http.Request) {
	var c StoredCard
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	c.ID = b.newID()
	if c.TTS {
		c.Files = []string{fmt.Sprintf("test/%s-0.mp3", c.ID)}
	}
	c = normalize(c)
	b.cards = append(b.cards, c)
	b.mu.Unlock()

	writeJSON(w, c)
}

func (b *FakeBackend) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var update StoredCard
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(r.PathValue("id"))
	if i < 0 {
		http.Error(w, "card not found", http.StatusNotFound)
		return
	}
	c := b.cards[i]
	c.Front = update.Front
	c.Back = update.Back
	c.MainWords = update.MainWords
	c.Notes = update.Notes
	c.Tags = update.Tags
	b.cards[i] = normalize(c)

	writeJSON(w, b.cards[i])
}

func (b *FakeBackend) handleDelete(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(r.PathValue("id"))
	if i < 0 {
		http.Error(w, "card not found", http.StatusNotFound)
		return
	}
	c := b.cards[i]
	b.cards = append(b.cards[:i], b.cards[i+1:]...)

	writeJSON(w, c)
}

func (b *FakeBackend) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Front string `json:"front"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Front == "" {
		http.Error(w, "front is required", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	file := fmt.Sprintf("test/tts-%d.mp3", b.nextID)
	b.nextID++
	b.mu.Unlock()

	writeJSON(w, map[string]any{"front": req.Front, "files": []string{file}})
}

func (b *FakeBackend) handleCardAudio(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		http.Error(w, "invalid file index", http.StatusBadRequest)
		return
	}

	var req struct {
		ID string `json:"_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(req.ID)
	if i < 0 {
		http.Error(w, "card not found", http.StatusNotFound)
		return
	}
	c := b.cards[i]
	for len(c.Files) <= index {
		c.Files = append(c.Files, "")
	}
	file := fmt.Sprintf("test/%s-%d-v%d.mp3", c.ID, index, b.nextID)
	b.nextID++
	c.Files[index] = file
	b.cards[i] = c

	writeJSON(w, map[string]any{"front": c.Front, "files": []string{file}})
}

// handleAudio serves fake audio for every file under test/
func (b *FakeBackend) handleAudio(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	if !strings.HasPrefix(file, "test/") {
		http.Error(w, "audio not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(FakeAudio(file))
}

// FakeAudio returns the content served for an audio file
func FakeAudio(file string) []byte {
	return []byte("ID3 fake audio " + file)
}

// newID must be called with the lock held
func (b *FakeBackend) newID() string {
	id := fmt.Sprintf("card-%d", b.nextID)
	b.nextID++
	return id
}

// indexOf must be called with the lock held
func (b *FakeBackend) indexOf(id string) int {
	for i, c := range b.cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func normalize(c StoredCard) StoredCard {
	if c.MainWords == nil {
		c.MainWords = []string{}
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.Files == nil {
		c.Files = []string{}
	}
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
