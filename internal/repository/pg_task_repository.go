package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/litxplore/litxplore/internal/domain"
)

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

// Compile-time interface verification.
var _ TaskRepository = (*PgTaskRepository)(nil)

// PgTaskRepository is a PostgreSQL implementation of TaskRepository.
type PgTaskRepository struct {
	db DBTX
}

// NewPgTaskRepository creates a new PostgreSQL task repository.
func NewPgTaskRepository(db DBTX) *PgTaskRepository {
	return &PgTaskRepository{db: db}
}

// Create inserts a new task.
func (r *PgTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.NewValidationError("task", "task cannot be nil")
	}
	if task.ID == uuid.Nil {
		return domain.NewValidationError("id", "task ID is required")
	}
	if task.UserID == uuid.Nil {
		return domain.NewValidationError("user_id", "user ID is required")
	}
	if !task.Status.IsValid() {
		return domain.NewValidationError("status", "unknown task status")
	}

	resultJSON, err := marshalTaskResult(task.Result)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, user_id, status, error_message, result, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.Exec(ctx, query,
		task.ID, task.UserID, task.Status,
		nullString(task.ErrorMessage), resultJSON,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return domain.NewAlreadyExistsError("task", task.ID.String())
		}
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// Get retrieves a task by ID for the given owner.
func (r *PgTaskRepository) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT id, user_id, status, error_message, result, created_at, updated_at
		FROM tasks
		WHERE id = $1 AND user_id = $2`

	row := r.db.QueryRow(ctx, query, id, userID)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("task", id.String())
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// Update applies fn to the task under a row lock. When the underlying
// DBTX is a pool the SELECT FOR UPDATE and UPDATE are wrapped in an
// explicit transaction; when it is already a transaction the statements
// run within it.
func (r *PgTaskRepository) Update(ctx context.Context, userID, id uuid.UUID, fn func(*domain.Task) error) error {
	if beginner, ok := r.db.(txBeginner); ok {
		tx, err := beginner.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction for update: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		txRepo := &PgTaskRepository{db: tx}
		if err := txRepo.updateInTx(ctx, userID, id, fn); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}

	return r.updateInTx(ctx, userID, id, fn)
}

// updateInTx performs the SELECT FOR UPDATE + UPDATE within the current
// DBTX. Must run inside a transaction for correct row-level locking.
func (r *PgTaskRepository) updateInTx(ctx context.Context, userID, id uuid.UUID, fn func(*domain.Task) error) error {
	selectQuery := `
		SELECT id, user_id, status, error_message, result, created_at, updated_at
		FROM tasks
		WHERE id = $1 AND user_id = $2
		FOR UPDATE`

	rows, err := r.db.Query(ctx, selectQuery, id, userID)
	if err != nil {
		return fmt.Errorf("failed to query task for update: %w", err)
	}

	task, err := scanTaskRows(rows)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NewNotFoundError("task", id.String())
		}
		return fmt.Errorf("failed to scan task: %w", err)
	}

	previous := task.Status
	if err := fn(task); err != nil {
		return err
	}

	if task.Status != previous {
		if !previous.CanTransitionTo(task.Status) {
			return fmt.Errorf("invalid task transition from %s to %s: %w",
				previous, task.Status, domain.ErrInvalidTransition)
		}
	}

	task.UpdatedAt = time.Now().UTC()

	resultJSON, err := marshalTaskResult(task.Result)
	if err != nil {
		return err
	}

	updateQuery := `
		UPDATE tasks SET
			status = $1,
			error_message = $2,
			result = $3,
			updated_at = $4
		WHERE id = $5 AND user_id = $6`

	_, err = r.db.Exec(ctx, updateQuery,
		task.Status, nullString(task.ErrorMessage), resultJSON, task.UpdatedAt,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return nil
}

// List retrieves the owner's tasks matching the filter, newest first.
func (r *PgTaskRepository) List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]*domain.Task, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, status, error_message, result, created_at, updated_at
		FROM tasks
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, userID, string(filter.Status), filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0, filter.Limit)
	for rows.Next() {
		task, err := scanTaskFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// taskScanDest holds the destination pointers for scanning a task row.
type taskScanDest struct {
	task         domain.Task
	errorMessage *string
	resultJSON   []byte
}

func (d *taskScanDest) destinations() []interface{} {
	return []interface{}{
		&d.task.ID, &d.task.UserID, &d.task.Status,
		&d.errorMessage, &d.resultJSON,
		&d.task.CreatedAt, &d.task.UpdatedAt,
	}
}

func (d *taskScanDest) finalize() (*domain.Task, error) {
	if d.errorMessage != nil {
		d.task.ErrorMessage = *d.errorMessage
	}
	if len(d.resultJSON) > 0 {
		var result domain.TaskResult
		if err := json.Unmarshal(d.resultJSON, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task result: %w", err)
		}
		d.task.Result = &result
	}
	return &d.task, nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var dest taskScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}

// scanTaskRows scans a single row from pgx.Rows. Used with SELECT FOR
// UPDATE which returns Rows instead of Row.
func scanTaskRows(rows pgx.Rows) (*domain.Task, error) {
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}

	return scanTaskFromRows(rows)
}

func scanTaskFromRows(rows pgx.Rows) (*domain.Task, error) {
	var dest taskScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}

// marshalTaskResult serializes the result payload for the jsonb column,
// returning nil for tasks without a result.
func marshalTaskResult(result *domain.TaskResult) ([]byte, error) {
	if result == nil {
		return nil, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task result: %w", err)
	}
	return data, nil
}

// isPgUniqueViolation checks if the error is a PostgreSQL unique
// constraint violation.
func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// nullString returns a pointer to the string if non-empty, otherwise nil.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
