package httpx

import (
	"log/slog"
	"net/http"

	"github.com/contentdesk/admin-gateway/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions *service.SessionManager
	// BackendProxy handles /api/* traffic after the route gate admits it.
	BackendProxy http.Handler
	// Audit is optional; when nil the audit listing route is not registered.
	Audit        AuditLister
	CookieDomain string
	BaseURL      string
	Logger       *slog.Logger
}

// NewRouter creates and configures the gateway's HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Mgr:          services.Sessions,
		CookieDomain: services.CookieDomain,
		BaseURL:      services.BaseURL,
		Logger:       services.Logger,
	}
	registerAuthRoutes(mux, authHandlers)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	gate := RequireAdminAccess(services.Sessions, services.Logger)

	if services.BackendProxy != nil {
		mux.Handle("/api/", gate(services.BackendProxy))
	}
	if services.Audit != nil {
		auditHandlers := &AuditHandlers{Repo: services.Audit}
		mux.Handle("GET /auth/audit", gate(http.HandlerFunc(auditHandlers.List)))
	}

	// Everything else is the admin console shell, gated the same way.
	mux.Handle("GET /", gate(http.HandlerFunc(consoleHandler)))

	return mux
}

// consoleHandler is the placeholder console shell served to admitted users.
// The real console frontend is deployed separately; this keeps browser
// navigation exercising the gate end to end.
func consoleHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<!doctype html><title>Admin console</title>" +
		"<h1>Admin console</h1><p>You are signed in with admin access.</p>"))
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/me", h.Me)
	mux.HandleFunc("GET /auth/denied", h.Denied)
	mux.HandleFunc("GET /auth/signed-out", h.SignedOut)
}
