package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/litxplore/litxplore/internal/auth"
	"github.com/litxplore/litxplore/internal/domain"
)

// taskResponse is the wire shape of a task. Result is present only on
// COMPLETED tasks, ErrorMessage only on FAILED ones.
type taskResponse struct {
	ID           uuid.UUID          `json:"id"`
	Status       domain.TaskStatus  `json:"status"`
	ErrorMessage string             `json:"error_message,omitempty"`
	Result       *domain.TaskResult `json:"result,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

func toTaskResponse(task *domain.Task) taskResponse {
	return taskResponse{
		ID:           task.ID,
		Status:       task.Status,
		ErrorMessage: task.ErrorMessage,
		Result:       task.Result,
		CreatedAt:    task.CreatedAt,
	}
}

func parseTaskIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		return uuid.Nil, domain.NewValidationError("task_id", "task id must be a UUID")
	}
	return id, nil
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	taskID, err := parseTaskIDParam(r)
	if err != nil {
		respondDomainError(w, s.logger, err)
		return
	}

	task, err := s.tasks.GetStatus(r.Context(), user, taskID)
	if err != nil {
		respondDomainError(w, s.logger, err)
		return
	}
	if task == nil {
		respondError(w, s.logger, http.StatusNotFound, "not_found", "task not found")
		return
	}
	respondJSON(w, s.logger, http.StatusOK, toTaskResponse(task))
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var status domain.TaskStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status = domain.TaskStatus(raw)
		if !status.IsValid() {
			respondError(w, s.logger, http.StatusBadRequest, "validation_error",
				"status must be one of PENDING, RUNNING, COMPLETED, FAILED")
			return
		}
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, s.logger, http.StatusBadRequest, "validation_error", "limit must be a positive integer")
			return
		}
		limit = n
	}

	tasks, err := s.tasks.ListTasks(r.Context(), user, status, limit)
	if err != nil {
		respondDomainError(w, s.logger, err)
		return
	}

	out := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskResponse(task))
	}
	respondJSON(w, s.logger, http.StatusOK, map[string]any{"tasks": out, "total": len(out)})
}

// handleCancelTask reports not found for foreign and already finished
// tasks alike, so task ownership is never disclosed.
func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	taskID, err := parseTaskIDParam(r)
	if err != nil {
		respondDomainError(w, s.logger, err)
		return
	}

	if !s.tasks.Cancel(r.Context(), user, taskID) {
		respondError(w, s.logger, http.StatusNotFound, "not_found", "task not found or already finished")
		return
	}
	respondJSON(w, s.logger, http.StatusOK, map[string]string{"message": "Task cancelled"})
}
