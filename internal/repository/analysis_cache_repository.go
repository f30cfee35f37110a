package repository

import (
	"context"
	"time"

	"github.com/litxplore/litxplore/internal/domain"
)

// AnalysisCacheRepository stores generated paper analyses keyed by
// cache key (paper hash, schema version, and model tag). Entries past
// their expiry are treated as absent.
type AnalysisCacheRepository interface {
	// Get retrieves a cached analysis by key.
	// Returns domain.ErrNotFound when the entry is missing or expired.
	Get(ctx context.Context, cacheKey string) (*domain.PaperAnalysis, error)

	// Put stores an analysis under the given key, replacing any
	// existing entry.
	Put(ctx context.Context, cacheKey, paperHash string, analysis *domain.PaperAnalysis, ttl time.Duration) error

	// DeleteExpired removes entries past their expiry and returns the
	// number removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
