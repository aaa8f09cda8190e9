package testutil

import (
	"context"
	"fmt"
	"sync"
)

// MockPlayer records the URLs it is asked to play
type MockPlayer struct {
	Err error

	mu   sync.Mutex
	urls []string
}

// Play records url and returns Err
func (m *MockPlayer) Play(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.urls = append(m.urls, url)
	return m.Err
}

// URLs returns the played URLs in call order
func (m *MockPlayer) URLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.urls...)
}

// MockProvider mocks an LLM assist provider
type MockProvider struct {
	ProviderName string
	Responses    []string // Returned in order, the last one repeats
	Err          error
	AvailableErr error

	mu           sync.Mutex
	calls        []string
	temperatures []*float32
}

// Complete records the prompt and returns the next canned response
func (m *MockProvider) Complete(ctx context.Context, prompt string, temperature *float32) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, prompt)
	m.temperatures = append(m.temperatures, temperature)

	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", fmt.Errorf("mock provider has no response")
	}

	i := len(m.calls) - 1
	if i >= len(m.Responses) {
		i = len(m.Responses) - 1
	}
	return m.Responses[i], nil
}

// Name returns the provider name
func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// IsAvailable returns AvailableErr
func (m *MockProvider) IsAvailable() error {
	return m.AvailableErr
}

// Calls returns the prompts received so far
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.calls...)
}

// Temperatures returns the temperature passed with each call
func (m *MockProvider) Temperatures() []*float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*float32{}, m.temperatures...)
}

// TestDataGenerator generates test data
type TestDataGenerator struct{}

// StoredCards returns a few backend cards in storage order
func (g *TestDataGenerator) StoredCards() []StoredCard {
	return []StoredCard{
		{ID: "card-a", Front: "猫が好きです。", Back: "I like cats.", MainWords: []string{"猫", "好き"}, Tags: []string{"animals"}, Files: []string{"test/card-a-0.mp3"}},
		{ID: "card-b", Front: "春、夏、秋、冬", Back: "spring, summer, autumn, winter", Tags: []string{"weather", "time"}},
		{ID: "card-c", Front: "今日はいい天気ですね。", Back: "Nice weather today, isn't it?", Notes: "greeting", MainWords: []string{"今日", "天気"}},
	}
}
