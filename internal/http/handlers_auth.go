package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/contentdesk/admin-gateway/internal/domain/auth"
	"github.com/contentdesk/admin-gateway/internal/service"
)

// Cookie names used by the auth flow.
const (
	sessionCookieName = "session_id"
	stateCookieName   = "oauth_state"
	nonceCookieName   = "oauth_nonce"
)

// SessionManagerInterface defines the session manager operations the auth
// handlers depend on.
type SessionManagerInterface interface {
	BeginLogin(ctx context.Context, returnURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, in service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	Logout(ctx context.Context, in service.LogoutInput) error
	Get(ctx context.Context, sessionID string) (*service.Session, bool)
	LogoutURL(returnTo string) string
}

// AuthHandlers provides HTTP handlers for the authentication flow.
type AuthHandlers struct {
	Mgr          SessionManagerInterface
	CookieDomain string
	// BaseURL of this gateway, used for the post-logout return address.
	BaseURL string
	Logger  *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login initiates the login flow.
// GET /auth/login?redirect_uri=<optional relative destination>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	returnURL := service.SafeReturnPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Mgr.BeginLogin(r.Context(), returnURL)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     err,
		})
		return
	}

	h.setFlowCookie(w, r, stateCookieName, result.State)
	h.setFlowCookie(w, r, nonceCookieName, result.Nonce)

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the login flow.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	var nonce string
	if nonceCookie, nonceErr := r.Cookie(nonceCookieName); nonceErr == nil {
		nonce = nonceCookie.Value
	}

	result, err := h.Mgr.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonce,
	})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "complete login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     err,
		})
		return
	}

	h.setSessionCookie(w, r, result.SessionID, result.ExpiresAt)
	h.clearCookie(w, r, stateCookieName)
	h.clearCookie(w, r, nonceCookieName)

	http.Redirect(w, r, service.SafeReturnPath(result.ReturnURL), http.StatusFound)
}

// Logout ends the session and sends the browser to the provider's logout.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	in := service.LogoutInput{SessionID: sessionIDFromRequest(r)}
	if stateCookie, err := r.Cookie(stateCookieName); err == nil {
		in.PendingState = stateCookie.Value
	}

	if err := h.Mgr.Logout(r.Context(), in); err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "error", err)
	}

	h.clearCookie(w, r, sessionCookieName)
	h.clearCookie(w, r, stateCookieName)
	h.clearCookie(w, r, nonceCookieName)

	signedOutURL := strings.TrimSuffix(h.BaseURL, "/") + "/auth/signed-out"
	logoutURL := h.Mgr.LogoutURL(signedOutURL)

	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": logoutURL,
		})
		return
	}
	http.Redirect(w, r, logoutURL, http.StatusFound)
}

// Me reports the current session state.
// GET /auth/me.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Mgr.Get(r.Context(), sessionIDFromRequest(r))
	if !ok {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false, "initialized": false})
		return
	}

	user := s.User()
	payload := map[string]any{
		"authenticated": s.Authenticated(),
		"initialized":   s.Initialized(),
		"admin_access":  domainauth.HasAdminAccess(user),
		"can_publish":   domainauth.CanPublish(user),
	}
	if user != nil {
		payload["user"] = user
	}
	WriteJSON(w, http.StatusOK, payload)
}

// Denied is the access-denied screen for authenticated users without admin roles.
// GET /auth/denied.
func (h *AuthHandlers) Denied(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "insufficient_permissions",
			Err:     errors.New("your account does not have access to the admin area"),
		})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte("<!doctype html><title>Access denied</title>" +
		"<h1>Access denied</h1><p>Your account does not have access to the admin area.</p>"))
}

// SignedOut confirms sign-out completed.
// GET /auth/signed-out.
func (h *AuthHandlers) SignedOut(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<!doctype html><title>Signed out</title>" +
		"<h1>Signed out</h1><p><a href=\"/auth/login\">Sign in again</a></p>"))
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}

// setFlowCookie stores a short-lived OAuth flow value (state, nonce).
func (h *AuthHandlers) setFlowCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
	})
}

// clearCookie clears a cookie by setting it to expire immediately. It mirrors
// the attributes used when setting cookies to maximize compatibility across
// browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
