package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a blog account. PasswordHash is a bcrypt hash and never leaves the server.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         *string   `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Author is the public projection of a user attached to feed entries.
type Author struct {
	ID   uuid.UUID `json:"id"`
	Name *string   `json:"name"`
}
