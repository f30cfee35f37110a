package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/litxplore/litxplore/internal/domain"
)

// Compile-time interface verification.
var _ AnalysisCacheRepository = (*PgAnalysisCacheRepository)(nil)

// PgAnalysisCacheRepository is a PostgreSQL implementation of
// AnalysisCacheRepository.
type PgAnalysisCacheRepository struct {
	db DBTX
}

// NewPgAnalysisCacheRepository creates a new PostgreSQL analysis cache.
func NewPgAnalysisCacheRepository(db DBTX) *PgAnalysisCacheRepository {
	return &PgAnalysisCacheRepository{db: db}
}

// Get retrieves a cached analysis by key. Expired entries are treated
// as absent; the periodic DeleteExpired sweep reclaims them.
func (r *PgAnalysisCacheRepository) Get(ctx context.Context, cacheKey string) (*domain.PaperAnalysis, error) {
	if cacheKey == "" {
		return nil, domain.NewValidationError("cache_key", "cache key is required")
	}

	query := `
		SELECT payload
		FROM paper_analyses
		WHERE cache_key = $1 AND expires_at > now()`

	var payload []byte
	if err := r.db.QueryRow(ctx, query, cacheKey).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("analysis", cacheKey)
		}
		return nil, fmt.Errorf("failed to get cached analysis: %w", err)
	}

	var analysis domain.PaperAnalysis
	if err := json.Unmarshal(payload, &analysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached analysis: %w", err)
	}

	return &analysis, nil
}

// Put stores an analysis under the given key, replacing any existing
// entry and resetting its expiry.
func (r *PgAnalysisCacheRepository) Put(ctx context.Context, cacheKey, paperHash string, analysis *domain.PaperAnalysis, ttl time.Duration) error {
	if cacheKey == "" {
		return domain.NewValidationError("cache_key", "cache key is required")
	}
	if analysis == nil {
		return domain.NewValidationError("analysis", "analysis cannot be nil")
	}

	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	query := `
		INSERT INTO paper_analyses (cache_key, paper_hash, payload, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cache_key) DO UPDATE SET
			payload = EXCLUDED.payload,
			expires_at = EXCLUDED.expires_at`

	now := time.Now().UTC()
	_, err = r.db.Exec(ctx, query, cacheKey, paperHash, payload, now.Add(ttl), now)
	if err != nil {
		return fmt.Errorf("failed to store cached analysis: %w", err)
	}

	return nil
}

// DeleteExpired removes entries past their expiry.
func (r *PgAnalysisCacheRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM paper_analyses WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired analyses: %w", err)
	}
	return result.RowsAffected(), nil
}
