package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle states of a background task.
// These values must match the database check constraint on tasks.status.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusRunning   TaskStatus = "RUNNING"
	TaskStatusCompleted TaskStatus = "COMPLETED"
	TaskStatusFailed    TaskStatus = "FAILED"
)

// validTaskTransitions defines the allowed status transitions.
// Terminal states have no outgoing edges.
var validTaskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending: {TaskStatusRunning, TaskStatusFailed},
	TaskStatusRunning: {TaskStatusCompleted, TaskStatusFailed},
}

// IsTerminal returns true if the status represents a final state that will not change.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// IsValid returns true if the status is one of the known lifecycle states.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the state machine allows moving from s to next.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range validTaskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Citation is the bibliographic record attached to a completed review.
// Published marshals as RFC 3339, so serialized results carry ISO-8601
// datetimes rather than opaque native representations.
type Citation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Authors   []string  `json:"authors"`
	Summary   string    `json:"summary,omitempty"`
	Published time.Time `json:"published"`
	URL       string    `json:"url,omitempty"`
}

// TaskResult is the payload stored on a successfully completed review task.
type TaskResult struct {
	Review    string     `json:"review"`
	Citations []Citation `json:"citations"`
	Topic     string     `json:"topic"`
}

// Task tracks one asynchronous review-generation job. ErrorMessage is
// set only for FAILED tasks, Result only for COMPLETED ones.
type Task struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Status       TaskStatus
	ErrorMessage string
	Result       *TaskResult
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
