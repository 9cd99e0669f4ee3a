package usecase

import (
	"context"
	"time"

	"github.com/allisson/go-pwdhash"

	auditDomain "github.com/keepsakevault/keepsake/internal/audit/domain"
	auditUseCase "github.com/keepsakevault/keepsake/internal/audit/usecase"
	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
	cryptoService "github.com/keepsakevault/keepsake/internal/crypto/service"
	apperrors "github.com/keepsakevault/keepsake/internal/errors"
	"github.com/keepsakevault/keepsake/internal/user/domain"
	userService "github.com/keepsakevault/keepsake/internal/user/service"
)

// DefaultSessionTTL is how long a login session stays valid.
const DefaultSessionTTL = 12 * time.Hour

// sessionUseCase manages login sessions and the vault lock state inside them.
type sessionUseCase struct {
	userRepo       UserRepository
	sessionStore   userService.SessionStore
	tokenService   userService.TokenService
	keyDeriver     cryptoService.KeyDeriver
	auditUseCase   auditUseCase.AuditUseCase
	passwordHasher *pwdhash.PasswordHasher
	sessionTTL     time.Duration
}

// NewSessionUseCase creates a SessionUseCase. A non-positive sessionTTL falls
// back to DefaultSessionTTL.
func NewSessionUseCase(
	userRepo UserRepository,
	sessionStore userService.SessionStore,
	tokenService userService.TokenService,
	keyDeriver cryptoService.KeyDeriver,
	audit auditUseCase.AuditUseCase,
	sessionTTL time.Duration,
) (SessionUseCase, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}

	return &sessionUseCase{
		userRepo:       userRepo,
		sessionStore:   sessionStore,
		tokenService:   tokenService,
		keyDeriver:     keyDeriver,
		auditUseCase:   audit,
		passwordHasher: hasher,
		sessionTTL:     sessionTTL,
	}, nil
}

// Login verifies the account password and creates a locked session.
//
// Lookup failures and password mismatches both surface as
// ErrInvalidCredentials so the response does not reveal whether the email is
// registered.
func (uc *sessionUseCase) Login(ctx context.Context, email, password string) (string, *domain.Session, error) {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	ok, err := uc.passwordHasher.Verify([]byte(password), user.Password)
	if err != nil || !ok {
		return "", nil, domain.ErrInvalidCredentials
	}

	plainToken, tokenHash, err := uc.tokenService.GenerateToken()
	if err != nil {
		return "", nil, err
	}

	session := domain.NewSession(tokenHash, user.ID, uc.sessionTTL)
	uc.sessionStore.Put(session)

	return plainToken, session, nil
}

// Authenticate resolves a plain session token to its session.
func (uc *sessionUseCase) Authenticate(_ context.Context, plainToken string) (*domain.Session, error) {
	tokenHash := uc.tokenService.HashToken(plainToken)
	session, ok := uc.sessionStore.Get(tokenHash)
	if !ok {
		return nil, domain.ErrSessionExpired
	}
	return session, nil
}

// Unlock derives the vault master key and initializes the session credential.
//
// The passphrase bytes belong to the caller; only the derived key is retained,
// inside the credential. Unlocking an already unlocked session fails because
// the credential rejects a second initialization.
func (uc *sessionUseCase) Unlock(ctx context.Context, session *domain.Session, passphrase []byte) error {
	user, err := uc.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return err
	}

	vmk, err := uc.keyDeriver.Derive(passphrase, user.KDFSalt)
	if err != nil {
		return err
	}

	if err := session.Credential.Initialize(vmk); err != nil {
		cryptoDomain.Zero(vmk.Key)
		return err
	}

	_, err = uc.auditUseCase.Append(ctx, auditUseCase.AppendInput{
		TenantID:     user.ID,
		UserID:       user.ID,
		Action:       auditDomain.ActionKeyDerived,
		ResourceType: "session",
	})
	return err
}

// Lock clears the session credential, zeroizing the master key. A cleared
// credential can never be reinitialized, so a fresh one takes its place to
// keep the session unlockable. Locking an already locked session is a no-op.
func (uc *sessionUseCase) Lock(ctx context.Context, session *domain.Session) error {
	wasUnlocked := session.Unlocked()
	session.Credential.Clear()
	session.Credential = cryptoDomain.NewSessionCredential()

	if !wasUnlocked {
		return nil
	}

	_, err := uc.auditUseCase.Append(ctx, auditUseCase.AppendInput{
		TenantID:     session.UserID,
		UserID:       session.UserID,
		Action:       auditDomain.ActionKeyCleared,
		ResourceType: "session",
	})
	return err
}

// Logout removes the session. The store clears the credential on delete.
func (uc *sessionUseCase) Logout(_ context.Context, session *domain.Session) error {
	uc.sessionStore.Delete(session.TokenHash)
	return nil
}

// CheckPassphrase scores a candidate vault passphrase. The score never blocks
// an unlock; a user who chose a weak passphrase can still reach their vault.
func (uc *sessionUseCase) CheckPassphrase(passphrase string) cryptoService.PassphraseStrength {
	return cryptoService.CheckPassphrase(passphrase)
}
