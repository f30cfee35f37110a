package domain

import (
	"time"

	"github.com/google/uuid"
)

// SavedReview is a literature review the user chose to keep. Citations
// holds the serialized citation list exactly as it was at save time.
type SavedReview struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Topic     string
	Content   string
	Citations string
	CreatedAt time.Time
	UpdatedAt time.Time
}
