package oidc

// Package oidc implements the IdentityProvider port over OIDC/OAuth2.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/contentdesk/admin-gateway/internal/domain/auth"
	"github.com/contentdesk/admin-gateway/internal/ports"
	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Provider implements ports.IdentityProvider using OIDC discovery, ID token
// verification, and the authorization code flow.
type Provider struct {
	config     *oauth2.Config
	logoutURL  string
	httpClient *http.Client

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	IssuerURL    string
	// LogoutURL is the provider's RP-initiated logout endpoint. Optional;
	// when empty, LogoutURL() returns the local return-to URL unchanged.
	LogoutURL  string
	HTTPClient *http.Client // optional, defaults to a 30s-timeout client
}

// NewProvider creates a new OIDC provider. Discovery runs once at startup.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	p := &Provider{
		logoutURL:  cfg.LogoutURL,
		httpClient: httpClient,
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(cfg.IssuerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: cfg.ClientID})

	scopes := strings.Fields(cfg.Scope)
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "profile", "email"}
	}
	p.config = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       scopes,
		Endpoint:     op.Endpoint(),
	}

	return p, nil
}

// Begin starts the login flow with cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (ports.BeginResult, error) {
	state, err := generateRandomString(32)
	if err != nil {
		return ports.BeginResult{}, fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return ports.BeginResult{}, fmt.Errorf("generate nonce: %w", err)
	}

	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_type", "code"),
	)

	return ports.BeginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// Exchange completes the login flow: code for token, ID token verification,
// nonce check, and claim mapping. The returned token source refreshes the
// access token per the provider's own policy; callers never cache credentials
// themselves.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (ports.ExchangeResult, error) {
	if in.Code == "" {
		return ports.ExchangeResult{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return ports.ExchangeResult{}, errors.New("state is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return ports.ExchangeResult{}, fmt.Errorf("exchange code for token: %w", err)
	}

	rawID, err := idTokenFromToken(token)
	if err != nil {
		return ports.ExchangeResult{}, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return ports.ExchangeResult{}, fmt.Errorf("verify id_token: %w", err)
	}

	var claims idTokenClaims
	if claimsErr := idTok.Claims(&claims); claimsErr != nil {
		return ports.ExchangeResult{}, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	if in.Nonce != "" && claims.Nonce != in.Nonce {
		return ports.ExchangeResult{}, errors.New("invalid nonce")
	}

	expiresAt := time.Now().Add(time.Hour)
	if !token.Expiry.IsZero() {
		expiresAt = token.Expiry
	}

	// Token sources outlive the callback request, so they refresh against a
	// background context bound to our HTTP client.
	tsCtx := context.WithValue(context.Background(), oauth2.HTTPClient, p.httpClient)

	return ports.ExchangeResult{
		Identity:  mapIDTokenClaims(claims),
		Tokens:    p.config.TokenSource(tsCtx, token),
		ExpiresAt: expiresAt,
	}, nil
}

// LogoutURL builds the RP-initiated logout URL for the configured endpoint.
func (p *Provider) LogoutURL(returnTo string) string {
	if p.logoutURL == "" {
		return returnTo
	}
	u, err := url.Parse(p.logoutURL)
	if err != nil {
		return returnTo
	}
	q := u.Query()
	q.Set("post_logout_redirect_uri", returnTo)
	q.Set("client_id", p.config.ClientID)
	u.RawQuery = q.Encode()
	return u.String()
}

// idTokenClaims is the subset of standard OIDC claims the gateway consumes.
type idTokenClaims struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Nonce   string `json:"nonce"`
}

// mapIDTokenClaims maps verified ID token claims into the domain identity.
func mapIDTokenClaims(c idTokenClaims) domainauth.Identity {
	return domainauth.Identity{
		Subject: c.Sub,
		Email:   c.Email,
		Name:    c.Name,
		Picture: c.Picture,
	}
}

// idTokenFromToken extracts the raw id_token from the token response.
func idTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return "", errors.New("missing id_token in token response")
	}
	return raw, nil
}

// generateRandomString generates a cryptographically secure URL-safe random
// string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	nBytes := (length*3 + 3) / 4
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	for len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}

var _ ports.IdentityProvider = (*Provider)(nil)
