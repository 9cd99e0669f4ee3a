package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
)

// Session is an authenticated login session. Credential starts uninitialized;
// a successful vault unlock initializes it with the derived master key and
// locking clears it. Sessions live only in memory because the credential holds
// raw key material.
type Session struct {
	TokenHash  string
	UserID     uuid.UUID
	Credential *cryptoDomain.SessionCredential
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// NewSession creates a session with an uninitialized credential.
func NewSession(tokenHash string, userID uuid.UUID, ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		TokenHash:  tokenHash,
		UserID:     userID,
		Credential: cryptoDomain.NewSessionCredential(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}

// Expired reports whether the session has passed its expiration time.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Unlocked reports whether the session holds a usable master key.
func (s *Session) Unlocked() bool {
	return s.Credential.State() == cryptoDomain.SessionInitialized
}
