package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/contentdesk/admin-gateway/internal/service"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionGate is the subset of SessionManager the route gate needs.
type SessionGate interface {
	Get(ctx context.Context, sessionID string) (*service.Session, bool)
}

// RequireAdminAccess is the route gate for the protected admin area.
//
// The check is composed and order-dependent: a session the provider does not
// consider authenticated is denied immediately; an authenticated session
// waits for its first profile merge to settle before roles are evaluated.
// Any failure during evaluation is treated as "not authenticated" — the gate
// fails closed, never indeterminate.
//
// Browser requests are redirected: to the login screen when unauthenticated,
// to the access-denied screen when authenticated without admin roles. API
// requests get 401/403 JSON instead.
func RequireAdminAccess(gate SessionGate, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := gate.Get(r.Context(), sessionIDFromRequest(r))
			if !ok || !s.Authenticated() {
				denyUnauthenticated(w, r)
				return
			}

			allowed, err := s.CheckAccess(r.Context())
			if err != nil {
				logger.WarnContext(r.Context(), "access check failed, denying",
					"error", err, "path", r.URL.Path)
				denyUnauthenticated(w, r)
				return
			}
			if !allowed {
				denyForbidden(w, r)
				return
			}

			ctx := SetSessionInContext(r.Context(), s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionIDFromRequest reads the opaque session cookie, or returns "".
func sessionIDFromRequest(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// isAPIRequest distinguishes API-shaped calls (JSON errors) from browser
// navigation (redirects).
func isAPIRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func denyUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}
	redirectPath := service.SafeReturnPath(r.URL.RequestURI())
	loginURL := "/auth/login?redirect_uri=" + url.QueryEscape(redirectPath)
	http.Redirect(w, r, loginURL, http.StatusSeeOther)
}

func denyForbidden(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "insufficient_permissions",
			Err:     errors.New("insufficient permissions"),
		})
		return
	}
	http.Redirect(w, r, "/auth/denied", http.StatusSeeOther)
}
