package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors the HTTP layer maps onto status codes. Detail-carrying
// error types below unwrap to these, so callers can branch with
// errors.Is without losing the detail.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrRateLimited        = errors.New("rate limited")
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInvalidTransition marks a task status update that the
	// lifecycle state machine does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// NotFoundError names the entity and identifier that could not be found.
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found: %s", e.Entity, e.ID) }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AlreadyExistsError names the entity and identifier that collided.
type AlreadyExistsError struct {
	Entity string
	ID     string
}

func NewAlreadyExistsError(entity, id string) *AlreadyExistsError {
	return &AlreadyExistsError{Entity: entity, ID: id}
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Entity, e.ID)
}

func (e *AlreadyExistsError) Unwrap() error { return ErrAlreadyExists }

// ValidationError ties a rejection message to the input field that
// caused it.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// AuthFailureReason classifies why authentication was rejected.
type AuthFailureReason string

const (
	AuthMissingCredentials    AuthFailureReason = "missing_credentials"
	AuthMalformedToken        AuthFailureReason = "malformed_token"
	AuthSigningKeyUnavailable AuthFailureReason = "signing_key_unavailable"
	AuthInvalidToken          AuthFailureReason = "invalid_token"
	AuthExpiredToken          AuthFailureReason = "expired_token"
	AuthUnauthorizedParty     AuthFailureReason = "unauthorized_party"
	AuthInternalFailure       AuthFailureReason = "internal_failure"
)

// AuthError describes a rejected authentication attempt. Message is safe
// to return to the client; Cause holds the detail that only reaches logs.
type AuthError struct {
	Reason  AuthFailureReason
	Message string
	Cause   error
}

func NewAuthError(reason AuthFailureReason, message string, cause error) *AuthError {
	return &AuthError{Reason: reason, Message: message, Cause: cause}
}

func (e *AuthError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("authentication failed (%s): %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("authentication failed (%s): %s: %v", e.Reason, e.Message, e.Cause)
}

func (e *AuthError) Unwrap() error { return ErrUnauthorized }

// ExternalAPIError records a failed call to an upstream source such as
// the arXiv export API or an LLM provider.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{Source: source, StatusCode: statusCode, Message: message, Cause: cause}
}

func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap exposes ErrServiceUnavailable so upstream failures keep their
// HTTP mapping even when no cause was recorded.
func (e *ExternalAPIError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrServiceUnavailable}
	}
	return []error{ErrServiceUnavailable, e.Cause}
}
