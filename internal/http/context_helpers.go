package httpx

import (
	"context"

	domainauth "github.com/contentdesk/admin-gateway/internal/domain/auth"
	"github.com/contentdesk/admin-gateway/internal/service"
)

// sessionKey is an unexported context key type to avoid collisions across
// packages. Centralized here so middleware and handlers share one key.
type sessionKey struct{}

// SetSessionInContext returns a child context carrying the given session.
// A nil session returns the original ctx unchanged.
func SetSessionInContext(ctx context.Context, s *service.Session) context.Context {
	if s == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session from context and whether it was present.
func SessionFromContext(ctx context.Context) (*service.Session, bool) {
	if s, ok := ctx.Value(sessionKey{}).(*service.Session); ok && s != nil {
		return s, true
	}
	return nil, false
}

// CurrentUserFromContext returns a copy of the merged user for the request's
// session, or nil when unauthenticated or unresolved.
func CurrentUserFromContext(ctx context.Context) *domainauth.CurrentUser {
	s, ok := SessionFromContext(ctx)
	if !ok {
		return nil
	}
	return s.User()
}
