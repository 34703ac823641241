package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/contentdesk/admin-gateway/internal/domain/auth"
	"github.com/contentdesk/admin-gateway/internal/service"
)

// fakeManager records calls and serves canned results for the auth handlers.
type fakeManager struct {
	beginReturnURL string
	beginResult    *service.BeginLoginResult
	beginErr       error

	completeIn     service.CompleteLoginInput
	completeResult *service.CompleteLoginResult
	completeErr    error

	logoutIn  service.LogoutInput
	logoutErr error

	session *service.Session
}

func (m *fakeManager) BeginLogin(_ context.Context, returnURL string) (*service.BeginLoginResult, error) {
	m.beginReturnURL = returnURL
	return m.beginResult, m.beginErr
}

func (m *fakeManager) CompleteLogin(_ context.Context, in service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
	m.completeIn = in
	return m.completeResult, m.completeErr
}

func (m *fakeManager) Logout(_ context.Context, in service.LogoutInput) error {
	m.logoutIn = in
	return m.logoutErr
}

func (m *fakeManager) Get(_ context.Context, sessionID string) (*service.Session, bool) {
	if m.session == nil || sessionID == "" {
		return nil, false
	}
	return m.session, true
}

func (m *fakeManager) LogoutURL(returnTo string) string {
	return "https://idp.example.com/logout?post_logout_redirect_uri=" + returnTo
}

func authHandlers(m *fakeManager) *AuthHandlers {
	return &AuthHandlers{Mgr: m, BaseURL: "http://localhost:8080", Logger: testLogger()}
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin_RedirectsToProviderAndSetsFlowCookies(t *testing.T) {
	m := &fakeManager{beginResult: &service.BeginLoginResult{
		AuthURL: "https://idp.example.com/authorize?state=st-1",
		State:   "st-1",
		Nonce:   "n-1",
	}}
	h := authHandlers(m)

	r := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=%2Freports%3Fpage%3D2", nil)
	rec := httptest.NewRecorder()
	h.Login(rec, r)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://idp.example.com/authorize?state=st-1", rec.Header().Get("Location"))
	assert.Equal(t, "/reports?page=2", m.beginReturnURL)

	state := cookieByName(t, rec, stateCookieName)
	require.NotNil(t, state)
	assert.Equal(t, "st-1", state.Value)
	assert.True(t, state.HttpOnly)
	assert.Equal(t, 600, state.MaxAge)

	nonce := cookieByName(t, rec, nonceCookieName)
	require.NotNil(t, nonce)
	assert.Equal(t, "n-1", nonce.Value)
}

func TestLogin_SanitizesAbsoluteRedirectURI(t *testing.T) {
	m := &fakeManager{beginResult: &service.BeginLoginResult{AuthURL: "/x", State: "s", Nonce: "n"}}
	h := authHandlers(m)

	r := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=https%3A%2F%2Fevil.example", nil)
	h.Login(httptest.NewRecorder(), r)

	assert.Equal(t, "/", m.beginReturnURL)
}

func TestLogin_ProviderFailureIs500(t *testing.T) {
	m := &fakeManager{beginErr: errors.New("discovery down")}
	h := authHandlers(m)

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "login_failed")
}

func TestCallback_MissingParams(t *testing.T) {
	h := authHandlers(&fakeManager{})

	rec := httptest.NewRecorder()
	h.Callback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?state=st-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_code")

	rec = httptest.NewRecorder()
	h.Callback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=c", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_state")
}

func TestCallback_StateCookieMismatchRejected(t *testing.T) {
	h := authHandlers(&fakeManager{})

	r := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=st-1", nil)
	r.AddCookie(&http.Cookie{Name: stateCookieName, Value: "st-other"})
	rec := httptest.NewRecorder()
	h.Callback(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_state")
}

func TestCallback_MissingStateCookieRejected(t *testing.T) {
	h := authHandlers(&fakeManager{})

	rec := httptest.NewRecorder()
	h.Callback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=st-1", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_state")
}

func TestCallback_SuccessSetsSessionCookieAndRedirects(t *testing.T) {
	m := &fakeManager{completeResult: &service.CompleteLoginResult{
		SessionID: "sess-1",
		ExpiresAt: time.Now().Add(time.Hour),
		ReturnURL: "/reports?page=2",
	}}
	h := authHandlers(m)

	r := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=st-1", nil)
	r.AddCookie(&http.Cookie{Name: stateCookieName, Value: "st-1"})
	r.AddCookie(&http.Cookie{Name: nonceCookieName, Value: "n-1"})
	rec := httptest.NewRecorder()
	h.Callback(rec, r)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/reports?page=2", rec.Header().Get("Location"))
	assert.Equal(t, service.CompleteLoginInput{Code: "c", State: "st-1", Nonce: "n-1"}, m.completeIn)

	sess := cookieByName(t, rec, sessionCookieName)
	require.NotNil(t, sess)
	assert.Equal(t, "sess-1", sess.Value)
	assert.True(t, sess.HttpOnly)
	assert.Positive(t, sess.MaxAge)

	state := cookieByName(t, rec, stateCookieName)
	require.NotNil(t, state)
	assert.Negative(t, state.MaxAge, "flow cookies cleared after callback")
}

func TestCallback_SanitizesStoredReturnURL(t *testing.T) {
	m := &fakeManager{completeResult: &service.CompleteLoginResult{
		SessionID: "sess-1",
		ExpiresAt: time.Now().Add(time.Hour),
		ReturnURL: "https://evil.example/phish",
	}}
	h := authHandlers(m)

	r := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=st-1", nil)
	r.AddCookie(&http.Cookie{Name: stateCookieName, Value: "st-1"})
	rec := httptest.NewRecorder()
	h.Callback(rec, r)

	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestCallback_ExchangeFailureIs500(t *testing.T) {
	m := &fakeManager{completeErr: errors.New("exchange failed")}
	h := authHandlers(m)

	r := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=st-1", nil)
	r.AddCookie(&http.Cookie{Name: stateCookieName, Value: "st-1"})
	rec := httptest.NewRecorder()
	h.Callback(rec, r)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "login_completion_failed")
}

func TestLogout_ClearsCookiesAndRedirectsToProvider(t *testing.T) {
	m := &fakeManager{}
	h := authHandlers(m)

	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-1"})
	r.AddCookie(&http.Cookie{Name: stateCookieName, Value: "st-pending"})
	rec := httptest.NewRecorder()
	h.Logout(rec, r)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t,
		"https://idp.example.com/logout?post_logout_redirect_uri=http://localhost:8080/auth/signed-out",
		rec.Header().Get("Location"))
	assert.Equal(t, service.LogoutInput{SessionID: "sess-1", PendingState: "st-pending"}, m.logoutIn)

	for _, name := range []string{sessionCookieName, stateCookieName, nonceCookieName} {
		c := cookieByName(t, rec, name)
		require.NotNil(t, c, name)
		assert.Negative(t, c.MaxAge, name)
	}
}

func TestLogout_JSONClient(t *testing.T) {
	h := authHandlers(&fakeManager{})

	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.Logout(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redirect_to"`)
}

func TestLogout_BackendFailureStillSignsOutBrowser(t *testing.T) {
	m := &fakeManager{logoutErr: errors.New("redis down")}
	h := authHandlers(m)

	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Logout(rec, r)

	assert.Equal(t, http.StatusFound, rec.Code)
	sess := cookieByName(t, rec, sessionCookieName)
	require.NotNil(t, sess)
	assert.Negative(t, sess.MaxAge)
}

func TestMe_UnknownSession(t *testing.T) {
	h := authHandlers(&fakeManager{})

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated": false, "initialized": false}`, rec.Body.String())
}

func TestMe_AdminSession(t *testing.T) {
	s := service.NewSession("sess-1")
	s.SetIdentity(&domainauth.Identity{Subject: "u1"})
	s.CompleteMerge(s.StartMerge(), &domainauth.CurrentUser{ID: "u1", Roles: []string{"Admin", "Publisher"}})
	h := authHandlers(&fakeManager{session: s})

	r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Me(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"authenticated":true`)
	assert.Contains(t, body, `"initialized":true`)
	assert.Contains(t, body, `"admin_access":true`)
	assert.Contains(t, body, `"can_publish":true`)
	assert.Contains(t, body, `"u1"`)
}

func TestMe_ResolvingSession(t *testing.T) {
	s := service.NewSession("sess-1")
	s.SetIdentity(&domainauth.Identity{Subject: "u1"})
	s.StartMerge()
	h := authHandlers(&fakeManager{session: s})

	r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Me(rec, r)

	body := rec.Body.String()
	assert.Contains(t, body, `"authenticated":true`)
	assert.Contains(t, body, `"initialized":false`)
	assert.Contains(t, body, `"admin_access":false`)
}

func TestDenied(t *testing.T) {
	h := authHandlers(&fakeManager{})

	r := httptest.NewRequest(http.MethodGet, "/auth/denied", nil)
	r.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.Denied(rec, r)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient_permissions")

	rec = httptest.NewRecorder()
	h.Denied(rec, httptest.NewRequest(http.MethodGet, "/auth/denied", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestSignedOut(t *testing.T) {
	h := authHandlers(&fakeManager{})

	rec := httptest.NewRecorder()
	h.SignedOut(rec, httptest.NewRequest(http.MethodGet, "/auth/signed-out", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestSecureCookiesBehindTLSProxy(t *testing.T) {
	m := &fakeManager{beginResult: &service.BeginLoginResult{AuthURL: "/x", State: "s", Nonce: "n"}}
	h := authHandlers(m)

	r := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	h.Login(rec, r)

	state := cookieByName(t, rec, stateCookieName)
	require.NotNil(t, state)
	assert.True(t, state.Secure)
}
