// Package usecase implements account registration and session business logic.
package usecase

import (
	"context"

	"github.com/google/uuid"

	cryptoService "github.com/keepsakevault/keepsake/internal/crypto/service"
	outboxDomain "github.com/keepsakevault/keepsake/internal/outbox/domain"
	"github.com/keepsakevault/keepsake/internal/user/domain"
)

// RegisterUserInput contains the input data for account registration.
type RegisterUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// OutboxEventRepository defines outbox event persistence operations.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*outboxDomain.OutboxEvent, error)
	Update(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// UserUseCase defines account operations.
type UserUseCase interface {
	RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// SessionUseCase defines login, vault unlock and lock operations.
type SessionUseCase interface {
	// Login verifies the account password and returns a plain session token.
	// The new session starts locked.
	Login(ctx context.Context, email, password string) (string, *domain.Session, error)

	// Authenticate resolves a plain session token to its session.
	Authenticate(ctx context.Context, plainToken string) (*domain.Session, error)

	// Unlock derives the vault master key from the passphrase and the user's
	// stored salt, and initializes the session credential with it.
	Unlock(ctx context.Context, session *domain.Session, passphrase []byte) error

	// Lock clears the session credential, zeroizing the master key. The
	// session itself stays valid for another unlock.
	Lock(ctx context.Context, session *domain.Session) error

	// Logout removes the session entirely.
	Logout(ctx context.Context, session *domain.Session) error

	// CheckPassphrase scores a candidate vault passphrase. Advisory only.
	CheckPassphrase(passphrase string) cryptoService.PassphraseStrength
}
