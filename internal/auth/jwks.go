// Package auth implements bearer-token verification against an external
// identity provider: JWKS fetching and caching, RS256 token validation,
// and lazy creation of local user records.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/litxplore/litxplore/internal/domain"
)

// jwk is a single JSON Web Key as served by the provider's JWKS endpoint.
// Only RSA signing keys are considered; anything else is skipped.
type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

// KeySet caches the identity provider's public signing keys. A lookup
// miss triggers exactly one forced refresh before failing; entries past
// their TTL are never trusted.
type KeySet struct {
	url        string
	ttl        time.Duration
	httpClient *http.Client
	logger     zerolog.Logger

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewKeySet creates a KeySet for the given JWKS endpoint. Keys are
// reused for ttl before a periodic refresh.
func NewKeySet(url string, ttl, fetchTimeout time.Duration, logger zerolog.Logger) *KeySet {
	return &KeySet{
		url:        url,
		ttl:        ttl,
		httpClient: &http.Client{Timeout: fetchTimeout},
		logger:     logger.With().Str("component", "jwks").Logger(),
	}
}

// Resolve returns the public key for the given key identifier. On a
// cache miss it forces a single refresh from the provider and retries
// the lookup once; if the key is still absent it fails with a
// signing-key-unavailable error.
func (ks *KeySet) Resolve(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if !ks.freshLocked() {
		if err := ks.refreshLocked(ctx); err != nil {
			return nil, err
		}
	}

	if key, ok := ks.keys[kid]; ok {
		return key, nil
	}

	// Key not found; could be provider-side rotation. One forced
	// refresh, then fail.
	ks.logger.Info().Str("kid", kid).Msg("key not found in cached JWKS, fetching fresh JWKS")
	if err := ks.refreshLocked(ctx); err != nil {
		return nil, err
	}

	if key, ok := ks.keys[kid]; ok {
		return key, nil
	}

	return nil, domain.NewAuthError(
		domain.AuthSigningKeyUnavailable,
		"Invalid token",
		fmt.Errorf("key with kid=%s not found in JWKS after refresh", kid),
	)
}

func (ks *KeySet) freshLocked() bool {
	return len(ks.keys) > 0 && time.Since(ks.fetchedAt) < ks.ttl
}

// refreshLocked fetches the JWKS document and replaces the cached keys.
// Callers must hold ks.mu.
func (ks *KeySet) refreshLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ks.url, nil)
	if err != nil {
		return domain.NewAuthError(domain.AuthSigningKeyUnavailable, "Authentication service unavailable", err)
	}

	resp, err := ks.httpClient.Do(req)
	if err != nil {
		ks.logger.Error().Err(err).Msg("failed to fetch JWKS")
		return domain.NewAuthError(domain.AuthSigningKeyUnavailable, "Authentication service unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
		ks.logger.Error().Err(err).Msg("failed to fetch JWKS")
		return domain.NewAuthError(domain.AuthSigningKeyUnavailable, "Authentication service unavailable", err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.NewAuthError(domain.AuthSigningKeyUnavailable, "Authentication service unavailable", err)
	}

	var doc jwksDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return domain.NewAuthError(domain.AuthSigningKeyUnavailable, "Authentication service unavailable",
			fmt.Errorf("failed to decode JWKS document: %w", err))
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaPublicKeyFromJWK(k)
		if err != nil {
			ks.logger.Warn().Err(err).Str("kid", k.Kid).Msg("skipping undecodable JWK")
			continue
		}
		keys[k.Kid] = pub
	}

	ks.keys = keys
	ks.fetchedAt = time.Now()
	ks.logger.Debug().Int("keys", len(keys)).Msg("refreshed JWKS cache")
	return nil
}

// rsaPublicKeyFromJWK decodes the base64url modulus and exponent of an
// RSA JWK into a crypto/rsa public key.
func rsaPublicKeyFromJWK(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e <= 1 {
		return nil, fmt.Errorf("invalid exponent value: %d", e)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
