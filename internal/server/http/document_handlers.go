package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/litxplore/litxplore/internal/domain"
	"github.com/litxplore/litxplore/internal/export"
)

type generateDocumentRequest struct {
	Content   string            `json:"content" validate:"required,max=50000"`
	Citations []domain.Citation `json:"citations" validate:"required,min=1,max=200"`
	Topic     string            `json:"topic" validate:"required,min=1,max=500"`
	Format    string            `json:"format" validate:"required,oneof=pdf latex"`
}

// handleGenerateDocument renders a review as a downloadable document.
func (s *Server) handleGenerateDocument(w http.ResponseWriter, r *http.Request) {
	var req generateDocumentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDomainError(w, s.logger, err)
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if strings.TrimSpace(req.Content) == "" {
		respondError(w, s.logger, http.StatusBadRequest, "validation_error", "content must not be empty")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "validation_error", validationMessage(err))
		return
	}

	format := export.Format(req.Format)
	document, err := export.Render(req.Content, req.Citations, req.Topic, format)
	if err != nil {
		respondDomainError(w, s.logger, err)
		return
	}

	w.Header().Set("Content-Type", format.MediaType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(document); err != nil {
		s.logger.Error().Err(err).Msg("failed to write document response")
	}
}
