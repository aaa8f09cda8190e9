package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codeberg.org/snonux/flashcards/internal/remote"
)

// serviceName identifies the backend in errors and logs
const serviceName = "backend"

// Config holds the backend connection settings
type Config struct {
	BaseURL string // e.g. "http://localhost:3000"
	Token   string // Static bearer token

	// HTTPClient is used for all requests. No timeout is configured beyond
	// the transport default when nil.
	HTTPClient *http.Client
}

// DefaultConfig returns the configuration for a local development backend
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:3000",
	}
}

// Client talks to the flashcards backend
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	u, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend base URL %q: %w", config.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid backend base URL %q: want http(s)://host", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		token:      config.Token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// BaseURL returns the backend base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call performs one request against path and decodes the JSON answer into out.
// body is JSON encoded when not nil.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	reqURL := c.baseURL + "/" + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Request-ID", requestID)

	log := c.logger.With(
		zap.String("method", method),
		zap.String("url", reqURL),
		zap.String("request_id", requestID),
	)
	log.Debug("API call")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("API response -> there was an error", zap.Error(err))
		return &remote.NetworkError{Service: serviceName, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &remote.NetworkError{Service: serviceName, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn("API response -> unexpected status code", zap.Int("status", resp.StatusCode))
		return remote.NewHTTPStatusError(serviceName, resp.StatusCode, data)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return &remote.DecodeError{Service: serviceName, Err: errors.New("response is 200 but it doesn't contain data")}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &remote.DecodeError{Service: serviceName, Err: err}
	}

	log.Debug("API response -> OK")
	return nil
}
