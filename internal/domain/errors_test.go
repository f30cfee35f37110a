package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsUnwrapToSentinels(t *testing.T) {
	assert.ErrorIs(t, NewNotFoundError("task", "abc"), ErrNotFound)
	assert.ErrorIs(t, NewAlreadyExistsError("review", "abc"), ErrAlreadyExists)
	assert.ErrorIs(t, NewValidationError("topic", "too short"), ErrInvalidInput)
	assert.ErrorIs(t, NewAuthError(AuthExpiredToken, "token expired", nil), ErrUnauthorized)
}

func TestExternalAPIError_Unwrap(t *testing.T) {
	// The arXiv client builds these with a nil cause.
	bare := NewExternalAPIError("arxiv", 503, "upstream overloaded", nil)
	assert.ErrorIs(t, bare, ErrServiceUnavailable)

	cause := errors.New("connection reset")
	wrapped := NewExternalAPIError("arxiv", 502, "bad gateway", cause)
	assert.ErrorIs(t, wrapped, ErrServiceUnavailable)
	assert.ErrorIs(t, wrapped, cause)

	var apiErr *ExternalAPIError
	assert.ErrorAs(t, fmt.Errorf("search: %w", bare), &apiErr)
	assert.Equal(t, 503, apiErr.StatusCode)
}
