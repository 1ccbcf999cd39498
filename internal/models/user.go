package models

import (
	"time"
)

// User is a canonical account. A user may be reachable through several
// linked identities; collection rows always reference the user id.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Identity is one external login bound to a user. (provider, subject) is
// unique across the table.
type Identity struct {
	ID       string    `json:"id"`
	Provider string    `json:"provider"`
	Subject  string    `json:"subject"`
	UserID   string    `json:"user_id"`
	LinkedAt time.Time `json:"linked_at"`
}

// Profile is a user together with their linked identities.
type Profile struct {
	User       User       `json:"user"`
	Identities []Identity `json:"identities"`
}
