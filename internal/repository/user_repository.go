package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/litxplore/litxplore/internal/domain"
)

// UserRepository manages local user records keyed by the identity
// provider's subject.
type UserRepository interface {
	// GetOrCreate returns the user for the given provider subject,
	// inserting a new record on first sight. The profile fields are
	// only written on insert; an existing record keeps its stored
	// profile.
	GetOrCreate(ctx context.Context, subject, email, firstName, lastName string) (*domain.User, error)

	// GetByID retrieves a user by local ID.
	// Returns domain.ErrNotFound if no such user exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
