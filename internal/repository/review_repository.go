package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/litxplore/litxplore/internal/domain"
)

// Saved-review list pagination defaults and limits.
const (
	defaultReviewListLimit = 100
	maxReviewListLimit     = 500
)

// ReviewRepository handles saved literature review persistence. All
// reads and deletes are scoped to the owning user.
type ReviewRepository interface {
	// Create inserts a new saved review.
	// Returns domain.ErrAlreadyExists if the review ID is taken.
	Create(ctx context.Context, review *domain.SavedReview) error

	// Get retrieves a saved review by ID for the given owner.
	// Returns domain.ErrNotFound if no matching review exists or the
	// review belongs to another user.
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.SavedReview, error)

	// List retrieves the owner's saved reviews, newest first. A limit
	// of zero or less applies the default.
	List(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.SavedReview, error)

	// Delete removes a saved review by ID for the given owner.
	// Returns domain.ErrNotFound if no matching review exists.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
