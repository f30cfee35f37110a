package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/litxplore/litxplore/internal/domain"
)

// UserStore resolves or lazily creates the local user record for an
// authenticated subject.
type UserStore interface {
	GetOrCreate(ctx context.Context, subject, email, firstName, lastName string) (*domain.User, error)
}

// Verifier validates bearer tokens issued by the identity provider and
// maps them to local users. All failure paths return a *domain.AuthError
// whose Message is safe for clients; the detail stays in Cause and in
// the server log.
type Verifier struct {
	keys              *KeySet
	issuer            string
	authorizedParties map[string]struct{}
	users             UserStore
	logger            zerolog.Logger
}

// NewVerifier creates a Verifier. An empty authorizedParties list
// accepts any azp claim.
func NewVerifier(keys *KeySet, issuer string, authorizedParties []string, users UserStore, logger zerolog.Logger) *Verifier {
	azp := make(map[string]struct{}, len(authorizedParties))
	for _, p := range authorizedParties {
		azp[p] = struct{}{}
	}
	return &Verifier{
		keys:              keys,
		issuer:            issuer,
		authorizedParties: azp,
		users:             users,
		logger:            logger.With().Str("component", "auth").Logger(),
	}
}

// Authenticate validates a raw bearer token and returns the local user,
// creating the record on first sight of the subject.
func (v *Verifier) Authenticate(ctx context.Context, rawToken string) (*domain.User, error) {
	if rawToken == "" {
		return nil, v.reject(domain.AuthMissingCredentials, "Authentication required",
			errors.New("no authentication credentials provided"))
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)

	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, domain.NewAuthError(domain.AuthMalformedToken, "Invalid token",
				errors.New("token header missing 'kid' field"))
		}
		return v.keys.Resolve(ctx, kid)
	})
	if err != nil {
		return nil, v.mapParseError(err)
	}

	if err := v.validateClaims(claims); err != nil {
		var authErr *domain.AuthError
		if errors.As(err, &authErr) {
			return nil, v.reject(authErr.Reason, authErr.Message, authErr.Cause)
		}
		return nil, v.reject(domain.AuthInvalidToken, "Invalid token", err)
	}

	subject, _ := claims["sub"].(string)
	email, firstName, lastName := extractProfile(claims, subject)

	v.logger.Debug().Str("subject", subject).Msg("authenticated token")

	user, err := v.users.GetOrCreate(ctx, subject, email, firstName, lastName)
	if err != nil {
		return nil, v.reject(domain.AuthInternalFailure, "Authentication failed",
			fmt.Errorf("user processing error: %w", err))
	}
	return user, nil
}

// mapParseError converts golang-jwt parse failures into the auth
// failure taxonomy. Keyfunc errors (already typed) pass through.
func (v *Verifier) mapParseError(err error) error {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return v.reject(authErr.Reason, authErr.Message, authErr.Cause)
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return v.reject(domain.AuthExpiredToken, "Token has expired", err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return v.reject(domain.AuthMalformedToken, "Invalid token",
			fmt.Errorf("failed to parse token: %w", err))
	default:
		return v.reject(domain.AuthInvalidToken, "Invalid token",
			fmt.Errorf("token validation error: %w", err))
	}
}

// validateClaims checks the claims the parser does not: required claim
// presence and the authorized-party allow-list. Audience is
// intentionally not checked; azp covers the provider's token shape.
func (v *Verifier) validateClaims(claims jwt.MapClaims) error {
	for _, required := range []string{"sub", "exp", "iat"} {
		if _, ok := claims[required]; !ok {
			return domain.NewAuthError(domain.AuthInvalidToken, "Invalid token",
				fmt.Errorf("token missing required claim: %s", required))
		}
	}
	if subject, _ := claims["sub"].(string); subject == "" {
		return domain.NewAuthError(domain.AuthInvalidToken, "Invalid token",
			errors.New("token payload 'sub' claim is empty"))
	}

	if len(v.authorizedParties) > 0 {
		azp, _ := claims["azp"].(string)
		if azp != "" {
			if _, ok := v.authorizedParties[azp]; !ok {
				return domain.NewAuthError(domain.AuthUnauthorizedParty, "Invalid token",
					fmt.Errorf("token azp %q not in authorized parties", azp))
			}
		}
	}
	return nil
}

// extractProfile pulls email and name fields from the claims. A missing
// email becomes a deterministic placeholder derived from the subject so
// repeated logins map to the same record. Names check the OpenID
// standard spelling first, then the provider's proprietary one.
func extractProfile(claims jwt.MapClaims, subject string) (email, firstName, lastName string) {
	email, _ = claims["email"].(string)
	if email == "" {
		email = domain.PlaceholderEmail(subject)
	}

	firstName, _ = claims["given_name"].(string)
	if firstName == "" {
		firstName, _ = claims["firstName"].(string)
	}

	lastName, _ = claims["family_name"].(string)
	if lastName == "" {
		lastName, _ = claims["lastName"].(string)
	}
	return email, firstName, lastName
}

// reject logs the detailed failure and returns the client-safe error.
func (v *Verifier) reject(reason domain.AuthFailureReason, message string, cause error) error {
	v.logger.Error().Err(cause).Str("reason", string(reason)).Msg("authentication rejected")
	return domain.NewAuthError(reason, message, cause)
}
