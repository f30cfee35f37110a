package httpserver

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/litxplore/litxplore/internal/auth"
)

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// handleCurrentUser returns the authenticated principal.
func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		respondError(w, s.logger, http.StatusUnauthorized, "unauthorized", "Authentication failed")
		return
	}
	respondJSON(w, s.logger, http.StatusOK, userResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: user.CreatedAt,
	})
}
