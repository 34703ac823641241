package oidc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/oauth2"

	"github.com/contentdesk/admin-gateway/internal/ports"
)

// newDiscoveryServer serves a minimal OIDC discovery document whose issuer is
// the server's own base URL.
func newDiscoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"issuer": %q,
			"authorization_endpoint": %q,
			"token_endpoint": %q,
			"jwks_uri": %q,
			"id_token_signing_alg_values_supported": ["RS256"]
		}`, srv.URL, srv.URL+"/authorize", srv.URL+"/token", srv.URL+"/jwks")
	})
	return srv
}

func TestNewProvider_Validation(t *testing.T) {
	base := ProviderConfig{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		IssuerURL:    "https://idp.example.com",
	}

	for _, tc := range []struct {
		name  string
		strip func(*ProviderConfig)
	}{
		{"missing client id", func(c *ProviderConfig) { c.ClientID = "" }},
		{"missing client secret", func(c *ProviderConfig) { c.ClientSecret = "" }},
		{"missing redirect url", func(c *ProviderConfig) { c.RedirectURL = "" }},
		{"missing issuer url", func(c *ProviderConfig) { c.IssuerURL = "" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.strip(&cfg)
			_, err := NewProvider(cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewProvider_DiscoveryAndBegin(t *testing.T) {
	srv := newDiscoveryServer(t)

	p, err := NewProvider(ProviderConfig{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		IssuerURL:    srv.URL,
		HTTPClient:   srv.Client(),
	})
	require.NoError(t, err)

	res, err := p.Begin(context.Background(), ports.BeginInput{})
	require.NoError(t, err)

	assert.Len(t, res.State, 32)
	assert.Len(t, res.Nonce, 32)

	u, err := url.Parse(res.AuthURL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.AuthURL, srv.URL+"/authorize"))
	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, res.State, q.Get("state"))
	assert.Equal(t, res.Nonce, q.Get("nonce"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Contains(t, q.Get("scope"), "openid")
}

func TestNewProvider_AcceptsDiscoveryDocumentURL(t *testing.T) {
	srv := newDiscoveryServer(t)

	_, err := NewProvider(ProviderConfig{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		IssuerURL:    srv.URL + "/.well-known/openid-configuration",
		HTTPClient:   srv.Client(),
	})
	require.NoError(t, err)
}

func TestProvider_LogoutURL(t *testing.T) {
	p := &Provider{
		logoutURL: "https://idp.example.com/v2/logout",
		config:    &oauth2.Config{ClientID: "cid"},
	}

	out := p.LogoutURL("http://localhost:8080/auth/signed-out")
	u, err := url.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, "idp.example.com", u.Host)
	assert.Equal(t, "/v2/logout", u.Path)
	assert.Equal(t, "http://localhost:8080/auth/signed-out", u.Query().Get("post_logout_redirect_uri"))
	assert.Equal(t, "cid", u.Query().Get("client_id"))
}

func TestProvider_LogoutURL_NoEndpointConfigured(t *testing.T) {
	p := &Provider{config: &oauth2.Config{ClientID: "cid"}}
	assert.Equal(t, "/auth/signed-out", p.LogoutURL("/auth/signed-out"))
}

func TestMapIDTokenClaims(t *testing.T) {
	id := mapIDTokenClaims(idTokenClaims{
		Sub:     "sub-1",
		Email:   "u@example.com",
		Name:    "User",
		Picture: "https://cdn/u.png",
	})
	assert.Equal(t, "sub-1", id.Subject)
	assert.Equal(t, "u@example.com", id.Email)
	assert.Equal(t, "User", id.Name)
	assert.Equal(t, "https://cdn/u.png", id.Picture)
}

func TestIDTokenFromToken(t *testing.T) {
	_, err := idTokenFromToken(nil)
	assert.Error(t, err)

	_, err = idTokenFromToken(&oauth2.Token{})
	assert.Error(t, err)

	tok := (&oauth2.Token{}).WithExtra(map[string]interface{}{"id_token": "raw"})
	raw, err := idTokenFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "raw", raw)
}

func TestGenerateRandomString(t *testing.T) {
	for _, n := range []int{1, 24, 32, 33} {
		s, err := generateRandomString(n)
		require.NoError(t, err)
		assert.Len(t, s, n)
	}

	s, err := generateRandomString(0)
	require.NoError(t, err)
	assert.Empty(t, s)

	a, _ := generateRandomString(32)
	b, _ := generateRandomString(32)
	assert.NotEqual(t, a, b)
}
