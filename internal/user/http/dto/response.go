// Package dto provides data transfer objects for the user HTTP layer.
package dto

import (
	"time"

	"github.com/google/uuid"
)

// UserResponse represents the API response for a user. It excludes the
// password hash and the key-derivation salt.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoginResponse carries the session token issued on login. The token is shown
// exactly once; only its hash is kept server-side.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionResponse reports the lock state of the current session.
type SessionResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Unlocked  bool      `json:"unlocked"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PassphraseStrengthResponse reports the advisory passphrase score.
type PassphraseStrengthResponse struct {
	Score int  `json:"score"`
	Valid bool `json:"valid"`
}
