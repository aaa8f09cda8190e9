package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"codeberg.org/snonux/flashcards/internal/remote"
)

// GeminiProvider implements Provider with the Gemini API
type GeminiProvider struct {
	client *genai.Client
	apiKey string
	model  string
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, config *Config) (*GeminiProvider, error) {
	if config.GeminiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" || model == DefaultOpenAIModel {
		model = DefaultGeminiModel
	}

	return &GeminiProvider{
		client: client,
		apiKey: config.GeminiKey,
		model:  model,
	}, nil
}

// Complete sends prompt as a single user turn
func (p *GeminiProvider) Complete(ctx context.Context, prompt string, temperature *float32) (string, error) {
	var generateConfig *genai.GenerateContentConfig
	if temperature != nil {
		t := *temperature
		generateConfig = &genai.GenerateContentConfig{Temperature: &t}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), generateConfig)
	if err != nil {
		return "", mapGeminiError(p.Name(), err)
	}

	text := resp.Text()
	if text == "" {
		return "", &remote.DecodeError{Service: p.Name(), Err: errors.New("no text returned")}
	}
	return text, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return ProviderGemini
}

// IsAvailable checks if the provider is configured
func (p *GeminiProvider) IsAvailable() error {
	if p.apiKey == "" {
		return fmt.Errorf("Gemini API key not configured")
	}
	return nil
}

func mapGeminiError(service string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &remote.HTTPStatusError{Service: service, StatusCode: apiErr.Code, Body: apiErr.Message}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &remote.DecodeError{Service: service, Err: err}
	}

	return &remote.NetworkError{Service: service, Err: err}
}
