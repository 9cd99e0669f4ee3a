// Package http provides HTTP handlers and middleware for accounts and sessions.
package http

import (
	"context"

	"github.com/keepsakevault/keepsake/internal/user/domain"
)

// sessionKey is a context key type for storing authenticated sessions.
type sessionKey struct{}

// WithSession stores an authenticated session in the context. Called by the
// session middleware after token validation.
func WithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSession retrieves the authenticated session from the context.
// Returns (session, true) when present, (nil, false) otherwise.
func GetSession(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*domain.Session)
	return session, ok
}
