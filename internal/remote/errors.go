// Package remote defines the errors returned by the clients talking to the
// card backend and the LLM provider. Callers match them with errors.As.
package remote

import (
	"errors"
	"fmt"
)

// maxBodyExcerpt limits how much of an error response body is kept
const maxBodyExcerpt = 512

// NetworkError means the request never got a response
type NetworkError struct {
	Service string // "backend" or the assist provider name
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Service, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPStatusError means the service answered with a non-success status
type HTTPStatusError struct {
	Service    string
	StatusCode int
	Body       string // Excerpt of the response body
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: API response code: %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: API response code: %d: %s", e.Service, e.StatusCode, e.Body)
}

// DecodeError means the response body does not have the expected shape
type DecodeError struct {
	Service string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: failed to decode response: %v", e.Service, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewHTTPStatusError builds a status error keeping a bounded body excerpt
func NewHTTPStatusError(service string, statusCode int, body []byte) *HTTPStatusError {
	if len(body) > maxBodyExcerpt {
		body = body[:maxBodyExcerpt]
	}
	return &HTTPStatusError{
		Service:    service,
		StatusCode: statusCode,
		Body:       string(body),
	}
}

// IsNetwork reports whether err is, or wraps, a NetworkError
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsDecode reports whether err is, or wraps, a DecodeError
func IsDecode(err error) bool {
	var decErr *DecodeError
	return errors.As(err, &decErr)
}

// StatusCode returns the HTTP status carried by err, if any
func StatusCode(err error) (int, bool) {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}
	return 0, false
}
