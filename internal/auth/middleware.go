package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/litxplore/litxplore/internal/domain"
	"github.com/litxplore/litxplore/internal/observability"
)

type principalKey struct{}

// ContextWithUser stores the authenticated user on the context.
func ContextWithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, principalKey{}, user)
}

// UserFromContext returns the authenticated user, or nil when the
// request did not pass through the auth middleware.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(principalKey{}).(*domain.User)
	return user
}

// Middleware returns a chi-compatible middleware that authenticates the
// Authorization bearer token and stores the principal on the request
// context. Failures get the standard error envelope; 401 responses
// carry a WWW-Authenticate challenge.
func Middleware(verifier *Verifier, metrics *observability.Metrics, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)

			user, err := verifier.Authenticate(r.Context(), token)
			if err != nil {
				writeAuthFailure(w, err, metrics, logger)
				return
			}

			ctx := ContextWithUser(r.Context(), user)
			ctx = observability.WithUserID(ctx, user.ID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header. Returns
// empty string when the header is absent or not a Bearer scheme.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type errorEnvelope struct {
	Status string      `json:"status"`
	Error  errorDetail `json:"error"`
}

type errorDetail struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

func writeAuthFailure(w http.ResponseWriter, err error, metrics *observability.Metrics, logger zerolog.Logger) {
	reason := domain.AuthInternalFailure
	message := "Authentication failed"
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		reason = authErr.Reason
		message = authErr.Message
	}

	status := http.StatusUnauthorized
	switch reason {
	case domain.AuthInternalFailure:
		status = http.StatusInternalServerError
	case domain.AuthSigningKeyUnavailable:
		status = http.StatusServiceUnavailable
	default:
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	if metrics != nil {
		metrics.RecordAuthFailure(string(reason))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	envelope := errorEnvelope{
		Status: "error",
		Error: errorDetail{
			Code:       string(reason),
			Message:    message,
			StatusCode: status,
		},
	}
	if encodeErr := json.NewEncoder(w).Encode(envelope); encodeErr != nil {
		logger.Error().Err(encodeErr).Msg("failed to encode auth error response")
	}
}
