package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/litxplore/litxplore/internal/domain"
)

// Task list pagination defaults and limits.
const (
	defaultTaskListLimit = 50
	maxTaskListLimit     = 200
)

// TaskRepository handles background task persistence and lifecycle
// management. All reads are scoped to the owning user: a task owned by
// someone else is indistinguishable from a missing one.
type TaskRepository interface {
	// Create inserts a new task. The task must have a valid ID, UserID,
	// and a valid status.
	// Returns domain.ErrAlreadyExists if the task ID is taken.
	Create(ctx context.Context, task *domain.Task) error

	// Get retrieves a task by ID for the given owner.
	// Returns domain.ErrNotFound if no matching task exists or the
	// task belongs to another user.
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error)

	// Update applies fn to the current task state under a row lock and
	// persists the result. Status changes made by fn must follow the
	// task state machine; invalid transitions abort the update with
	// domain.ErrInvalidTransition.
	// Returns domain.ErrNotFound if no matching task exists.
	Update(ctx context.Context, userID, id uuid.UUID, fn func(*domain.Task) error) error

	// List retrieves the owner's tasks matching the filter, newest
	// first.
	List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]*domain.Task, error)
}

// TaskFilter specifies criteria for listing tasks.
type TaskFilter struct {
	// Status filters by lifecycle state (optional).
	Status domain.TaskStatus

	// Limit specifies maximum number of results (default: 50, max: 200).
	Limit int
}

// Validate checks the filter and applies defaults.
func (f *TaskFilter) Validate() error {
	if f.Status != "" && !f.Status.IsValid() {
		return domain.NewValidationError("status", "unknown task status")
	}
	if f.Limit <= 0 {
		f.Limit = defaultTaskListLimit
	}
	if f.Limit > maxTaskListLimit {
		f.Limit = maxTaskListLimit
	}
	return nil
}
