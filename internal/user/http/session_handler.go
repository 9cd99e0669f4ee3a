package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	cryptoDomain "github.com/keepsakevault/keepsake/internal/crypto/domain"
	apperrors "github.com/keepsakevault/keepsake/internal/errors"
	"github.com/keepsakevault/keepsake/internal/httputil"
	"github.com/keepsakevault/keepsake/internal/user/http/dto"
	userUseCase "github.com/keepsakevault/keepsake/internal/user/usecase"
	customValidation "github.com/keepsakevault/keepsake/internal/validation"
)

// SessionHandler handles HTTP requests for login sessions and vault lock state.
type SessionHandler struct {
	sessionUseCase userUseCase.SessionUseCase
	logger         *slog.Logger
}

// NewSessionHandler creates a new session handler with required dependencies.
func NewSessionHandler(sessionUseCase userUseCase.SessionUseCase, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionUseCase: sessionUseCase,
		logger:         logger,
	}
}

// LoginHandler verifies the account password and issues a session token.
// POST /v1/sessions - No authentication required.
// Returns 201 Created with the plain token; the new session starts locked.
func (h *SessionHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	token, session, err := h.sessionUseCase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.LoginResponse{Token: token, ExpiresAt: session.ExpiresAt})
}

// GetHandler reports the current session's lock state.
// GET /v1/sessions/current - Requires a valid session.
func (h *SessionHandler) GetHandler(c *gin.Context) {
	session, ok := GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

// UnlockHandler derives the vault master key from the submitted passphrase.
// POST /v1/sessions/current/unlock - Requires a valid session.
// Returns 200 OK with the session state. The passphrase bytes are zeroed
// before the handler returns.
func (h *SessionHandler) UnlockHandler(c *gin.Context) {
	session, ok := GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.UnlockVaultRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	passphrase := []byte(req.Passphrase)
	defer cryptoDomain.Zero(passphrase)

	if err := h.sessionUseCase.Unlock(c.Request.Context(), session, passphrase); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

// LockHandler clears the session's master key.
// POST /v1/sessions/current/lock - Requires a valid session.
// Returns 200 OK with the session state. Locking twice is harmless.
func (h *SessionHandler) LockHandler(c *gin.Context) {
	session, ok := GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	if err := h.sessionUseCase.Lock(c.Request.Context(), session); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

// LogoutHandler removes the session entirely.
// DELETE /v1/sessions/current - Requires a valid session.
// Returns 204 No Content.
func (h *SessionHandler) LogoutHandler(c *gin.Context) {
	session, ok := GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	if err := h.sessionUseCase.Logout(c.Request.Context(), session); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// CheckPassphraseHandler scores a candidate vault passphrase.
// POST /v1/passphrase-checks - No authentication required; the passphrase is
// scored and discarded, never logged or stored.
func (h *SessionHandler) CheckPassphraseHandler(c *gin.Context) {
	var req dto.CheckPassphraseRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	strength := h.sessionUseCase.CheckPassphrase(req.Passphrase)
	c.JSON(http.StatusOK, dto.ToPassphraseStrengthResponse(strength))
}
