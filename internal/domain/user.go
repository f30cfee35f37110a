package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PlaceholderEmailDomain is appended to the provider subject when the
// token carries no usable email claim. The synthetic address is
// deterministic so repeated logins map to the same local record.
const PlaceholderEmailDomain = "litxplore.generated"

// User is the local record for an authenticated principal. Subject is
// the immutable identifier issued by the identity provider; everything
// else is refreshable profile data.
type User struct {
	ID        uuid.UUID
	Subject   string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlaceholderEmail returns the synthetic email for a provider subject.
func PlaceholderEmail(subject string) string {
	return fmt.Sprintf("%s@%s", subject, PlaceholderEmailDomain)
}
