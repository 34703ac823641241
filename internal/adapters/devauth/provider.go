package devauth

// Package devauth provides a config-driven IdentityProvider for local
// development. It short-circuits the OAuth flow by redirecting straight back
// to our own callback with locally generated state and nonce.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/contentdesk/admin-gateway/internal/domain/auth"
	"github.com/contentdesk/admin-gateway/internal/ports"
	"golang.org/x/oauth2"
)

// Config controls the dev auth provider behavior.
type Config struct {
	Subject         string
	Email           string
	Name            string
	SessionDuration time.Duration // default 8h when zero
}

// Provider implements ports.IdentityProvider for local development.
// Exchange ignores the code and returns the configured identity with a
// static bearer token.
type Provider struct {
	identity        domainauth.Identity
	sessionDuration time.Duration
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Subject == "" {
		return nil, errors.New("dev auth: Subject is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	dur := cfg.SessionDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	return &Provider{
		identity: domainauth.Identity{
			Subject: cfg.Subject,
			Email:   cfg.Email,
			Name:    cfg.Name,
		},
		sessionDuration: dur,
	}, nil
}

// Begin returns a local callback URL with locally generated state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (ports.BeginResult, error) {
	state, err := randomString(24)
	if err != nil {
		return ports.BeginResult{}, fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return ports.BeginResult{}, fmt.Errorf("generate nonce: %w", err)
	}
	// The standard handler expects GET /auth/callback?code=...&state=...
	return ports.BeginResult{
		AuthURL: "/auth/callback?code=dev&state=" + state,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// Exchange ignores the provided code (state is validated by the handler) and
// returns the configured identity with a static dev token.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (ports.ExchangeResult, error) {
	return ports.ExchangeResult{
		Identity:  p.identity,
		Tokens:    oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "dev-token", TokenType: "Bearer"}),
		ExpiresAt: time.Now().Add(p.sessionDuration),
	}, nil
}

// LogoutURL has no IdP session to end in dev mode.
func (p *Provider) LogoutURL(returnTo string) string {
	return returnTo
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	bLen := (n*3 + 3) / 4
	b := make([]byte, bLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	for len(s) < n {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:n], nil
}

var _ ports.IdentityProvider = (*Provider)(nil)
