package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// APIError carries the details of a failed provider call. A StatusCode
// of zero means the request never got an HTTP response.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	// Type and Code are the provider's own error classification, when
	// the response body includes one.
	Type string
	Code string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: API error (status %d, type %s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
}

// IsTransient reports whether a retry has a chance of succeeding:
// network failures, 429, and 5xx qualify.
func (e *APIError) IsTransient() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// Retryable classifies an error as worth retrying. API errors answer
// for themselves; anything else (parse failures, empty responses) is
// also retried since a fresh completion may well come back usable.
// Context cancellation is never retryable.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsTransient()
	}
	return true
}
