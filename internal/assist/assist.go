package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"codeberg.org/snonux/flashcards/internal/remote"
)

const (
	MinTemperature = 0
	MaxTemperature = 2

	breakerFailures = 5
	breakerTimeout  = 30 * time.Second
)

// Client sends prompts to a provider
type Client struct {
	provider    Provider
	breaker     *gobreaker.CircuitBreaker
	temperature *float32
	logger      *zap.Logger
}

// NewClient creates a client for provider. After repeated transport failures
// calls fail fast until the provider had some time to recover.
func NewClient(provider Provider, config *Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		provider: provider,
		logger:   logger.With(zap.String("provider", provider.Name())),
	}
	if config != nil {
		c.temperature = config.Temperature
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "assist-" + provider.Name(),
		Timeout: breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		IsSuccessful: func(err error) bool {
			// Status and decode errors mean the provider is reachable
			return err == nil || !remote.IsNetwork(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})

	return c
}

// Provider returns the provider used by the client
func (c *Client) Provider() Provider {
	return c.provider
}

// SendPrompt sends prompt as a single message and returns the raw answer.
// The answer is not checked to be JSON.
func (c *Client) SendPrompt(ctx context.Context, prompt string, temperature *float32) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt is empty")
	}
	if temperature == nil {
		temperature = c.temperature
	}
	if err := ValidateTemperature(temperature); err != nil {
		return "", err
	}

	c.logger.Debug("Sending prompt", zap.Int("length", len(prompt)))
	start := time.Now()

	answer, err := c.breaker.Execute(func() (interface{}, error) {
		return c.provider.Complete(ctx, prompt, temperature)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &remote.NetworkError{Service: c.provider.Name(), Err: err}
		}
		c.logger.Warn("Prompt failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return "", err
	}

	c.logger.Debug("Prompt answered", zap.Duration("elapsed", time.Since(start)))
	return answer.(string), nil
}

// SendPromptTyped sends prompt and decodes the answer as JSON into T. An
// answer that is not a single JSON value is a DecodeError.
func SendPromptTyped[T any](ctx context.Context, c *Client, prompt string, temperature *float32) (T, error) {
	var result T

	answer, err := c.SendPrompt(ctx, prompt, temperature)
	if err != nil {
		return result, err
	}

	if err := decodeStrict([]byte(answer), &result); err != nil {
		return result, &remote.DecodeError{Service: c.provider.Name(), Err: err}
	}
	return result, nil
}

// ValidateTemperature checks that a sampling temperature is within [0, 2]
func ValidateTemperature(temperature *float32) error {
	if temperature == nil {
		return nil
	}
	if *temperature < MinTemperature || *temperature > MaxTemperature {
		return fmt.Errorf("temperature %.2f out of range [%d, %d]", *temperature, MinTemperature, MaxTemperature)
	}
	return nil
}

// Temperature returns a pointer to t, for use as an optional argument
func Temperature(t float32) *float32 {
	return &t
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}
