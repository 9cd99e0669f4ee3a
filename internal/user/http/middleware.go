package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/keepsakevault/keepsake/internal/errors"
	"github.com/keepsakevault/keepsake/internal/httputil"
	"github.com/keepsakevault/keepsake/internal/user/domain"
	userUseCase "github.com/keepsakevault/keepsake/internal/user/usecase"
)

// SessionMiddleware authenticates requests via Bearer session token in the
// Authorization header and stores the session in the request context for
// downstream handlers.
//
// Authorization header format: "Bearer <token>" (case-insensitive "bearer").
//
// Error handling:
//   - Missing or malformed Authorization header -> 401 Unauthorized
//   - Unknown or expired session token -> 401 Unauthorized
func SessionMiddleware(
	sessionUseCase userUseCase.SessionUseCase,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		plainToken := authHeader[len(bearerPrefix):]
		if plainToken == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		session, err := sessionUseCase.Authenticate(c.Request.Context(), plainToken)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithSession(c.Request.Context(), session)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireUnlockedVault ensures the session holds an initialized master key.
// Must run after SessionMiddleware. Returns 423 Locked otherwise.
func RequireUnlockedVault(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c.Request.Context())
		if !ok {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if !session.Unlocked() {
			httputil.HandleErrorGin(c, domain.ErrVaultLocked, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
