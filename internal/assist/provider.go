package assist

import (
	"context"
	"fmt"
)

// Provider defines the interface for chat completion providers
type Provider interface {
	// Complete sends prompt as a single user message and returns the text of
	// the first answer. A nil temperature uses the provider default.
	Complete(ctx context.Context, prompt string, temperature *float32) (string, error)

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured
	IsAvailable() error
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DefaultOpenAIModel = "gpt-4"
	DefaultGeminiModel = "gemini-2.0-flash"
)

// Config holds the assist provider settings
type Config struct {
	Provider string // "openai" or "gemini"
	Model    string // Empty selects the provider default

	// OpenAI-specific settings
	OpenAIKey     string
	OpenAIBaseURL string // Empty uses the public API

	// Gemini-specific settings
	GeminiKey string

	// Temperature is used when a call does not set one. Nil keeps the
	// provider default.
	Temperature *float32
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderOpenAI,
		Model:    DefaultOpenAIModel,
	}
}

// NewProvider creates the provider selected by config
func NewProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderOpenAI, "":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIProvider(config)

	case ProviderGemini:
		if config.GeminiKey == "" {
			return nil, fmt.Errorf("Gemini API key is required")
		}
		return NewGeminiProvider(context.Background(), config)

	default:
		return nil, fmt.Errorf("unknown assist provider: %s", config.Provider)
	}
}
