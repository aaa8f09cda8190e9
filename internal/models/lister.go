package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// maxListed limits the chat models printed before the rest is summarized
const maxListed = 10

// chatPrefixes identify models that answer chat completions
var chatPrefixes = []string{"gpt-", "o1", "o3", "o4", "chatgpt-"}

// Skipped even when they match a chat prefix
var nonChatMarkers = []string{"tts", "audio", "realtime", "transcribe", "image", "search"}

// Lister handles listing available OpenAI models
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a new model lister. An empty baseURL uses the public API.
func NewLister(apiKey, baseURL string) *Lister {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Lister{
		apiKey: apiKey,
		client: openai.NewClientWithConfig(config),
	}
}

// ChatModels returns the sorted IDs of the chat models available to the key
func (l *Lister) ChatModels(ctx context.Context) ([]string, error) {
	if l.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .flashcards.yaml")
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	chatModels := []string{}
	for _, model := range models.Models {
		if IsChatModel(model.ID) {
			chatModels = append(chatModels, model.ID)
		}
	}
	sort.Strings(chatModels)
	return chatModels, nil
}

// ListAvailableModels prints the chat models to w and marks current
func (l *Lister) ListAvailableModels(ctx context.Context, w io.Writer, current string) error {
	chatModels, err := l.ChatModels(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Chat models available for assist:")
	if len(chatModels) == 0 {
		fmt.Fprintln(w, "  No chat models found")
		return nil
	}

	shown := chatModels
	if len(shown) > maxListed {
		// Prefer the configured model and the GPT-4 family
		shown = []string{}
		for _, model := range chatModels {
			if model == current || strings.HasPrefix(model, "gpt-4") {
				shown = append(shown, model)
			}
		}
	}

	for _, model := range shown {
		marker := " "
		if model == current {
			marker = "*"
		}
		fmt.Fprintf(w, " %s %s\n", marker, model)
	}
	if hidden := len(chatModels) - len(shown); hidden > 0 {
		fmt.Fprintf(w, "  ... and %d more models\n", hidden)
	}
	return nil
}

// IsChatModel reports whether id names a chat completion model
func IsChatModel(id string) bool {
	for _, marker := range nonChatMarkers {
		if strings.Contains(id, marker) {
			return false
		}
	}
	for _, prefix := range chatPrefixes {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	return false
}
