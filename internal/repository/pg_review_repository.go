package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/litxplore/litxplore/internal/domain"
)

// Compile-time interface verification.
var _ ReviewRepository = (*PgReviewRepository)(nil)

// PgReviewRepository is a PostgreSQL implementation of ReviewRepository.
type PgReviewRepository struct {
	db DBTX
}

// NewPgReviewRepository creates a new PostgreSQL saved-review repository.
func NewPgReviewRepository(db DBTX) *PgReviewRepository {
	return &PgReviewRepository{db: db}
}

// Create inserts a new saved review.
func (r *PgReviewRepository) Create(ctx context.Context, review *domain.SavedReview) error {
	if review == nil {
		return domain.NewValidationError("review", "review cannot be nil")
	}
	if review.ID == uuid.Nil {
		return domain.NewValidationError("id", "review ID is required")
	}
	if review.UserID == uuid.Nil {
		return domain.NewValidationError("user_id", "user ID is required")
	}
	if review.Title == "" {
		return domain.NewValidationError("title", "title is required")
	}

	query := `
		INSERT INTO reviews (id, user_id, title, topic, content, citations, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		review.ID, review.UserID, review.Title, review.Topic,
		review.Content, nullString(review.Citations),
		review.CreatedAt, review.UpdatedAt,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return domain.NewAlreadyExistsError("review", review.ID.String())
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// Get retrieves a saved review by ID for the given owner.
func (r *PgReviewRepository) Get(ctx context.Context, userID, id uuid.UUID) (*domain.SavedReview, error) {
	query := `
		SELECT id, user_id, title, topic, content, citations, created_at, updated_at
		FROM reviews
		WHERE id = $1 AND user_id = $2`

	row := r.db.QueryRow(ctx, query, id, userID)
	review, err := scanSavedReview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("review", id.String())
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return review, nil
}

// List retrieves the owner's saved reviews, newest first.
func (r *PgReviewRepository) List(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.SavedReview, error) {
	if limit <= 0 {
		limit = defaultReviewListLimit
	}
	if limit > maxReviewListLimit {
		limit = maxReviewListLimit
	}

	query := `
		SELECT id, user_id, title, topic, content, citations, created_at, updated_at
		FROM reviews
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]*domain.SavedReview, 0, limit)
	for rows.Next() {
		review, err := scanSavedReviewFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

// Delete removes a saved review by ID for the given owner.
func (r *PgReviewRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM reviews WHERE id = $1 AND user_id = $2`

	result, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("review", id.String())
	}

	return nil
}

// savedReviewScanDest holds the destination pointers for scanning a
// saved review row.
type savedReviewScanDest struct {
	review    domain.SavedReview
	citations *string
}

func (d *savedReviewScanDest) destinations() []interface{} {
	return []interface{}{
		&d.review.ID, &d.review.UserID, &d.review.Title, &d.review.Topic,
		&d.review.Content, &d.citations,
		&d.review.CreatedAt, &d.review.UpdatedAt,
	}
}

func (d *savedReviewScanDest) finalize() *domain.SavedReview {
	if d.citations != nil {
		d.review.Citations = *d.citations
	}
	return &d.review
}

func scanSavedReview(row pgx.Row) (*domain.SavedReview, error) {
	var dest savedReviewScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize(), nil
}

func scanSavedReviewFromRows(rows pgx.Rows) (*domain.SavedReview, error) {
	var dest savedReviewScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize(), nil
}
