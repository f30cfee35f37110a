// Package tasks runs the asynchronous review-generation pipeline and
// exposes durable task status to the owning user. Each launched
// pipeline is a detached goroutine tracked in a process-wide registry
// so it can be cancelled; the Task row is the single source of truth
// for observable state.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/litxplore/litxplore/internal/domain"
	"github.com/litxplore/litxplore/internal/events"
	"github.com/litxplore/litxplore/internal/repository"
)

// CancelledMessage is the error recorded on user-cancelled tasks.
const CancelledMessage = "Task cancelled by user"

// statusUpdateTimeout bounds terminal status writes, which run on a
// fresh context because the pipeline context may already be dead.
const statusUpdateTimeout = 10 * time.Second

// PaperGateway resolves paper identifiers to normalized papers.
type PaperGateway interface {
	FetchByIDs(ctx context.Context, ids []domain.PaperID) ([]domain.Paper, error)
}

// ReviewGenerator produces a literature review over resolved papers.
type ReviewGenerator interface {
	Generate(ctx context.Context, papers []domain.Paper, topic string) (string, error)
}

// UploadCleaner deletes uploaded PDFs once a pipeline is done with them.
type UploadCleaner interface {
	Cleanup(ids []domain.PaperID)
}

// EventPublisher emits task lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event events.TaskEvent)
}

// Tracker owns task lifecycle and the registry of running pipelines.
type Tracker struct {
	repo      repository.TaskRepository
	gateway   PaperGateway
	generator ReviewGenerator
	uploads   UploadCleaner
	publisher EventPublisher
	logger    zerolog.Logger

	mu      sync.Mutex
	running map[uuid.UUID]context.CancelFunc
}

// NewTracker creates a task tracker.
func NewTracker(repo repository.TaskRepository, gateway PaperGateway, generator ReviewGenerator, uploads UploadCleaner, publisher EventPublisher, logger zerolog.Logger) *Tracker {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Tracker{
		repo:      repo,
		gateway:   gateway,
		generator: generator,
		uploads:   uploads,
		publisher: publisher,
		logger:    logger.With().Str("component", "tasks").Logger(),
		running:   make(map[uuid.UUID]context.CancelFunc),
	}
}

// CreateTask persists a new PENDING task for the user.
func (t *Tracker) CreateTask(ctx context.Context, user *domain.User) (*domain.Task, error) {
	now := time.Now().UTC()
	task := &domain.Task{
		ID:        uuid.New(),
		UserID:    user.ID,
		Status:    domain.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	t.publisher.Publish(ctx, events.TaskEvent{
		Type:   events.TypeTaskCreated,
		TaskID: task.ID.String(),
		UserID: task.UserID.String(),
		Status: string(task.Status),
	})
	return task, nil
}

// StartReviewGeneration launches the review pipeline as a detached
// goroutine and returns immediately. The goroutine is registered for
// cancellation and unregistered when it finishes, whatever the outcome.
func (t *Tracker) StartReviewGeneration(userID, taskID uuid.UUID, paperIDs []domain.PaperID, topic string, maxPapers int) {
	ctx, cancel := context.WithCancel(context.Background())

	t.mu.Lock()
	t.running[taskID] = cancel
	t.mu.Unlock()

	go func() {
		defer func() {
			t.mu.Lock()
			delete(t.running, taskID)
			t.mu.Unlock()
			cancel()
		}()
		t.runPipeline(ctx, userID, taskID, paperIDs, topic, maxPapers)
	}()
}

// Running reports whether a pipeline for the task is registered.
func (t *Tracker) Running(taskID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.running[taskID]
	return ok
}

// GetStatus returns the task only when it belongs to the user. A task
// owned by someone else resolves to nil, indistinguishable from a
// missing one.
func (t *Tracker) GetStatus(ctx context.Context, user *domain.User, taskID uuid.UUID) (*domain.Task, error) {
	task, err := t.repo.Get(ctx, user.ID, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return task, nil
}

// ListTasks returns the user's tasks newest first, optionally filtered
// by status.
func (t *Tracker) ListTasks(ctx context.Context, user *domain.User, status domain.TaskStatus, limit int) ([]*domain.Task, error) {
	return t.repo.List(ctx, user.ID, repository.TaskFilter{Status: status, Limit: limit})
}

// Cancel stops an in-flight task. It returns false when the task does
// not exist, is not owned by the user, or is already terminal. The
// pipeline is cancelled cooperatively: a job past its last cancellable
// step may still try to complete, in which case its final write loses
// against the terminal FAILED state and is logged.
func (t *Tracker) Cancel(ctx context.Context, user *domain.User, taskID uuid.UUID) bool {
	task, err := t.repo.Get(ctx, user.ID, taskID)
	if err != nil {
		return false
	}
	if task.Status.IsTerminal() {
		return false
	}

	t.mu.Lock()
	cancel, ok := t.running[taskID]
	if ok {
		delete(t.running, taskID)
	}
	t.mu.Unlock()
	if ok {
		cancel()
	}

	err = t.repo.Update(ctx, user.ID, taskID, func(task *domain.Task) error {
		task.Status = domain.TaskStatusFailed
		task.ErrorMessage = CancelledMessage
		return nil
	})
	if err != nil {
		t.logger.Error().Err(err).Str("task_id", taskID.String()).Msg("recording task cancellation failed")
	}

	t.publisher.Publish(ctx, events.TaskEvent{
		Type:   events.TypeTaskCancelled,
		TaskID: taskID.String(),
		UserID: user.ID.String(),
		Status: string(domain.TaskStatusFailed),
		Error:  CancelledMessage,
	})

	t.logger.Info().Str("task_id", taskID.String()).Msg("task cancelled")
	return true
}

// runPipeline executes the review pipeline. Uploaded PDFs referenced by
// the request are deleted when the pipeline finishes, success or not.
func (t *Tracker) runPipeline(ctx context.Context, userID, taskID uuid.UUID, paperIDs []domain.PaperID, topic string, maxPapers int) {
	defer t.uploads.Cleanup(paperIDs)

	logger := t.logger.With().Str("task_id", taskID.String()).Logger()
	logger.Info().Str("topic", topic).Int("paper_ids", len(paperIDs)).Msg("review pipeline started")

	err := t.execute(ctx, userID, taskID, paperIDs, topic, maxPapers)
	if err == nil {
		logger.Info().Msg("review pipeline completed")
		t.publishTerminal(events.TypeTaskCompleted, taskID, userID, "")
		return
	}

	if ctx.Err() != nil {
		// Cancel already recorded the terminal state and published the
		// cancellation event.
		logger.Info().Msg("review pipeline stopped by cancellation")
		return
	}

	logger.Error().Err(err).Msg("review pipeline failed")
	t.markFailed(userID, taskID, err)
	t.publishTerminal(events.TypeTaskFailed, taskID, userID, err.Error())
}

func (t *Tracker) execute(ctx context.Context, userID, taskID uuid.UUID, paperIDs []domain.PaperID, topic string, maxPapers int) error {
	err := t.repo.Update(ctx, userID, taskID, func(task *domain.Task) error {
		task.Status = domain.TaskStatusRunning
		return nil
	})
	if err != nil {
		return fmt.Errorf("marking task running: %w", err)
	}

	papers, err := t.gateway.FetchByIDs(ctx, paperIDs)
	if err != nil {
		return fmt.Errorf("fetching papers: %w", err)
	}
	if len(papers) == 0 {
		return fmt.Errorf("no papers could be resolved for review generation")
	}
	if maxPapers > 0 && len(papers) > maxPapers {
		papers = papers[:maxPapers]
	}

	review, err := t.generator.Generate(ctx, papers, topic)
	if err != nil {
		return err
	}

	result := &domain.TaskResult{
		Review:    review,
		Citations: citationsOf(papers),
		Topic:     topic,
	}
	err = t.repo.Update(ctx, userID, taskID, func(task *domain.Task) error {
		task.Status = domain.TaskStatusCompleted
		task.Result = result
		return nil
	})
	if err != nil {
		return fmt.Errorf("recording task result: %w", err)
	}
	return nil
}

// markFailed records the failure on the task row. The write runs on a
// fresh context and its own failure is logged, never re-raised, so
// cleanup always completes.
func (t *Tracker) markFailed(userID, taskID uuid.UUID, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), statusUpdateTimeout)
	defer cancel()

	err := t.repo.Update(ctx, userID, taskID, func(task *domain.Task) error {
		task.Status = domain.TaskStatusFailed
		task.ErrorMessage = cause.Error()
		return nil
	})
	if err != nil {
		t.logger.Error().Err(err).Str("task_id", taskID.String()).Msg("recording task failure failed")
	}
}

func (t *Tracker) publishTerminal(eventType string, taskID, userID uuid.UUID, errMessage string) {
	ctx, cancel := context.WithTimeout(context.Background(), statusUpdateTimeout)
	defer cancel()

	status := domain.TaskStatusCompleted
	if eventType != events.TypeTaskCompleted {
		status = domain.TaskStatusFailed
	}
	t.publisher.Publish(ctx, events.TaskEvent{
		Type:   eventType,
		TaskID: taskID.String(),
		UserID: userID.String(),
		Status: string(status),
		Error:  errMessage,
	})
}

// citationsOf converts resolved papers into the bibliographic records
// stored on the completed task. Citation.Published marshals as RFC
// 3339, so the serialized result carries ISO-8601 datetimes.
func citationsOf(papers []domain.Paper) []domain.Citation {
	citations := make([]domain.Citation, 0, len(papers))
	for _, p := range papers {
		citations = append(citations, domain.Citation{
			ID:        p.ID,
			Title:     p.Title,
			Authors:   p.Authors,
			Summary:   p.Summary,
			Published: p.Published,
			URL:       p.URL,
		})
	}
	return citations
}
