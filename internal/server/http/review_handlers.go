package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/litxplore/litxplore/internal/auth"
	"github.com/litxplore/litxplore/internal/domain"
)

// defaultMaxPapers bounds how many papers one review may draw on.
const defaultMaxPapers = 10

type generateReviewRequest struct {
	PaperIDs  []string `json:"paper_ids" validate:"required,min=1,max=50,dive,min=1"`
	Topic     string   `json:"topic" validate:"required,min=3,max=500"`
	MaxPapers int      `json:"max_papers" validate:"omitempty,min=1,max=50"`
}

func (s *Server) handleGenerateReview(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req generateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDomainError(w, s.logger, err)
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if err := s.validate.Struct(req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "validation_error", validationMessage(err))
		return
	}

	paperIDs, err := domain.ParsePaperIDs(req.PaperIDs)
	if err != nil {
		respondDomainError(w, s.logger, err)
		return
	}
	maxPapers := req.MaxPapers
	if maxPapers <= 0 {
		maxPapers = defaultMaxPapers
	}

	task, err := s.tasks.CreateTask(r.Context(), user)
	if err != nil {
		respondDomainError(w, s.logger, err)
		return
	}
	s.tasks.StartReviewGeneration(user.ID, task.ID, paperIDs, req.Topic, maxPapers)

	respondJSON(w, s.logger, http.StatusAccepted, toTaskResponse(task))
}

type saveReviewRequest struct {
	Title     string `json:"title" validate:"omitempty,max=255"`
	Topic     string `json:"topic" validate:"required,min=3,max=500"`
	Content   string `json:"content" validate:"required,max=100000"`
	Citations string `json:"citations" validate:"omitempty,max=200000"`
}

func (s *Server) handleSaveReview(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req saveReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDomainError(w, s.logger, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Topic = strings.TrimSpace(req.Topic)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" {
		req.Title = "Untitled Review"
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "validation_error", validationMessage(err))
		return
	}

	now := time.Now().UTC()
	review := &domain.SavedReview{
		ID:        uuid.New(),
		UserID:    user.ID,
		Title:     req.Title,
		Topic:     req.Topic,
		Content:   req.Content,
		Citations: req.Citations,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reviews.Create(r.Context(), review); err != nil {
		respondDomainError(w, s.logger, err)
		return
	}

	respondJSON(w, s.logger, http.StatusOK, map[string]any{
		"message":   "Review saved successfully",
		"review_id": review.ID,
	})
}

type reviewResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Topic     string    `json:"topic"`
	Content   string    `json:"content"`
	Citations string    `json:"citations,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleReviewHistory(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, s.logger, http.StatusBadRequest, "validation_error", "limit must be a positive integer")
			return
		}
		limit = n
	}

	reviews, err := s.reviews.List(r.Context(), user.ID, limit)
	if err != nil {
		respondDomainError(w, s.logger, err)
		return
	}

	out := make([]reviewResponse, 0, len(reviews))
	for _, review := range reviews {
		out = append(out, reviewResponse{
			ID:        review.ID,
			Title:     review.Title,
			Topic:     review.Topic,
			Content:   review.Content,
			Citations: review.Citations,
			CreatedAt: review.CreatedAt,
		})
	}
	respondJSON(w, s.logger, http.StatusOK, out)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	reviewID, err := uuid.Parse(chi.URLParam(r, "reviewID"))
	if err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "validation_error", "review id must be a UUID")
		return
	}

	if err := s.reviews.Delete(r.Context(), user.ID, reviewID); err != nil {
		respondDomainError(w, s.logger, err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, map[string]string{"message": "Review deleted successfully"})
}
