package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codeberg.org/snonux/flashcards/internal/remote"
)

// DownloadAudio streams an audio file served by the backend into w
func (c *Client) DownloadAudio(ctx context.Context, file string, w io.Writer) error {
	if file == "" {
		return fmt.Errorf("no audio file to download")
	}

	audioURL := c.AudioURL(file)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Request-ID", requestID)
	c.logger.Debug("Audio download", zap.String("url", audioURL), zap.String("request_id", requestID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &remote.NetworkError{Service: serviceName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return remote.NewHTTPStatusError(serviceName, resp.StatusCode, body)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return &remote.NetworkError{Service: serviceName, Err: fmt.Errorf("failed to read audio %s: %w", file, err)}
	}
	return nil
}
