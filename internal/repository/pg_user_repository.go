package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/litxplore/litxplore/internal/domain"
)

// Compile-time interface verification.
var _ UserRepository = (*PgUserRepository)(nil)

// PgUserRepository is a PostgreSQL implementation of UserRepository.
type PgUserRepository struct {
	db DBTX
}

// NewPgUserRepository creates a new PostgreSQL user repository.
func NewPgUserRepository(db DBTX) *PgUserRepository {
	return &PgUserRepository{db: db}
}

// GetOrCreate returns the user for the given provider subject, creating
// the record on first login. The upsert makes concurrent first logins
// for the same subject race-safe: both callers get the same row.
func (r *PgUserRepository) GetOrCreate(ctx context.Context, subject, email, firstName, lastName string) (*domain.User, error) {
	if subject == "" {
		return nil, domain.NewValidationError("subject", "subject is required")
	}
	if email == "" {
		return nil, domain.NewValidationError("email", "email is required")
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO users (id, subject, email, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (subject) DO UPDATE SET subject = EXCLUDED.subject
		RETURNING id, subject, email, first_name, last_name, created_at, updated_at`

	row := r.db.QueryRow(ctx, query, uuid.New(), subject, email, firstName, lastName, now)

	var user domain.User
	if err := row.Scan(&user.ID, &user.Subject, &user.Email, &user.FirstName, &user.LastName, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to get or create user: %w", err)
	}

	return &user, nil
}

// GetByID retrieves a user by local ID.
func (r *PgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, subject, email, first_name, last_name, created_at, updated_at
		FROM users
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)

	var user domain.User
	if err := row.Scan(&user.ID, &user.Subject, &user.Email, &user.FirstName, &user.LastName, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("user", id.String())
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
