// Package domain defines the core user domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/keepsakevault/keepsake/internal/errors"
)

// User represents a vault owner account. Password holds the account password
// hash; KDFSalt is the per-user salt for deriving the vault master key from
// the vault passphrase. The two secrets are independent: the account password
// authenticates the user, the vault passphrase unlocks their content.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Password  string
	KDFSalt   []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates a user with the same email already exists.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")

	// ErrInvalidCredentials indicates the email or password did not match.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrSessionExpired indicates the session token is no longer valid.
	ErrSessionExpired = errors.Wrap(errors.ErrUnauthorized, "session expired")

	// ErrVaultLocked indicates the session has no initialized master key.
	ErrVaultLocked = errors.Wrap(errors.ErrLocked, "vault is locked")
)
