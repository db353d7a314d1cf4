// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrNotFound indicates the upstream has no record for the identifier.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates the upstream kept answering 429 after retries.
	ErrRateLimited = errors.New("rate limited")
)

// APIError is a non-2xx response from an upstream API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Unwrap maps 404 and 429 onto the sentinel errors so callers can use
// errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

// IsNotFound reports whether err means the upstream had no record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// maxErrorBody caps how much of an error body is kept for diagnostics.
const maxErrorBody = 512

// CheckResponse returns nil for 2xx responses. Otherwise it reads a short
// prefix of the body, closes it, and returns an *APIError.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
}
