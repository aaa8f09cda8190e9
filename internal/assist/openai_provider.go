package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/flashcards/internal/remote"
)

// OpenAIProvider implements Provider with OpenAI chat completions
type OpenAIProvider struct {
	client *openai.Client
	apiKey string
	model  string
}

// NewOpenAIProvider creates a new OpenAI chat provider
func NewOpenAIProvider(config *Config) (*OpenAIProvider, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.OpenAIKey)
	if config.OpenAIBaseURL != "" {
		clientConfig.BaseURL = config.OpenAIBaseURL
	}

	model := config.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		apiKey: config.OpenAIKey,
		model:  model,
	}, nil
}

// Complete sends prompt to the chat completions endpoint
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, temperature *float32) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}
	if temperature != nil {
		req.Temperature = *temperature
		if req.Temperature == 0 {
			// The field is omitted when zero
			req.Temperature = math.SmallestNonzeroFloat32
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", p.mapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &remote.DecodeError{Service: p.Name(), Err: errors.New("no choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

// IsAvailable checks if the provider is configured
func (p *OpenAIProvider) IsAvailable() error {
	if p.apiKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}
	return nil
}

func (p *OpenAIProvider) mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &remote.HTTPStatusError{Service: p.Name(), StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return remote.NewHTTPStatusError(p.Name(), reqErr.HTTPStatusCode, nil)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &remote.DecodeError{Service: p.Name(), Err: err}
	}

	return &remote.NetworkError{Service: p.Name(), Err: err}
}
