package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/litxplore/litxplore/internal/domain"
)

// errorEnvelope is the uniform error body:
// {"status":"error","error":{"code","message","status_code"}}.
type errorEnvelope struct {
	Status string      `json:"status"`
	Error  errorDetail `json:"error"`
}

type errorDetail struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

func respondJSON(w http.ResponseWriter, logger zerolog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error().Err(err).Msg("failed to encode response body")
	}
}

func respondError(w http.ResponseWriter, logger zerolog.Logger, status int, code, message string) {
	respondJSON(w, logger, status, errorEnvelope{
		Status: "error",
		Error: errorDetail{
			Code:       code,
			Message:    message,
			StatusCode: status,
		},
	})
}

// respondDomainError maps domain errors onto the envelope. Unclassified
// errors become a generic 500 so internal detail stays in the logs.
func respondDomainError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(w, logger, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, logger, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		respondError(w, logger, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		respondError(w, logger, http.StatusUnauthorized, "unauthorized", "Authentication failed")
	case errors.Is(err, domain.ErrRateLimited):
		respondError(w, logger, http.StatusTooManyRequests, "rate_limited", "Too many requests")
	case errors.Is(err, domain.ErrServiceUnavailable):
		respondError(w, logger, http.StatusBadGateway, "external_service_error", "An upstream service is unavailable")
	default:
		logger.Error().Err(err).Msg("request failed")
		respondError(w, logger, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// decodeJSON reads a JSON request body into dst. Oversized and
// malformed bodies map to validation errors.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.NewValidationError("body", "request body too large")
		}
		return domain.NewValidationError("body", "invalid JSON request body")
	}
	return nil
}
