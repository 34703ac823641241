package ports

// Package ports defines interfaces (hexagonal ports) for session and
// authorization behavior. Implementations live in internal/adapters and
// internal/data; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/contentdesk/admin-gateway/internal/domain/auth"
	"golang.org/x/oauth2"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	ReturnURL string
}

// BeginResult is the provider's answer to Begin: where to send the browser,
// plus the opaque state and nonce the callback must verify.
type BeginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// ExchangeResult is the outcome of a completed login flow. Tokens is a
// refreshing source for the short-lived access credential; its caching and
// renewal policy belong to the provider, not to us.
type ExchangeResult struct {
	Identity  domainauth.Identity
	Tokens    oauth2.TokenSource
	ExpiresAt time.Time
}

// IdentityProvider initiates and completes an authentication flow against an
// identity provider. Both operations may fail; failures must not crash the
// session merge pipeline.
type IdentityProvider interface {
	Begin(ctx context.Context, in BeginInput) (BeginResult, error)
	Exchange(ctx context.Context, in ExchangeInput) (ExchangeResult, error)

	// LogoutURL returns the provider URL that ends the IdP session and sends
	// the browser back to returnTo. Providers without an end-session endpoint
	// return returnTo unchanged.
	LogoutURL(returnTo string) string
}

// FetchProfileInput groups parameters for a profile fetch.
type FetchProfileInput struct {
	Identity domainauth.Identity
	Tokens   oauth2.TokenSource
}

// ProfileFetcher retrieves the backend-side user record for an authenticated
// identity. Single request, no retry; failures surface as an error value and
// never panic past this boundary.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, in FetchProfileInput) (domainauth.Profile, error)
}

// ReturnURLStore persists the pending post-login return URL, keyed by the
// OAuth state of the login attempt. The key space is distinct from every
// other stored value. Take reads and deletes in one step.
type ReturnURLStore interface {
	Save(ctx context.Context, state, returnURL string) error
	Take(ctx context.Context, state string) (string, error)
	Delete(ctx context.Context, state string) error
}

// SessionSnapshot is the durable record of a READY session, used to survive
// process restarts. Tokens are deliberately not persisted.
type SessionSnapshot struct {
	ID        string                  `json:"id"`
	User      *domainauth.CurrentUser `json:"user"`
	ExpiresAt time.Time               `json:"expires_at"`
}

// SessionSnapshotStore persists and retrieves session snapshots.
type SessionSnapshotStore interface {
	Save(ctx context.Context, snap SessionSnapshot) error
	Get(ctx context.Context, id string) (SessionSnapshot, error)
	Delete(ctx context.Context, id string) error
}

// SignInRecord describes a completed sign-in for the audit trail.
type SignInRecord struct {
	SessionID string
	UserID    string
	Email     string
	Roles     []string
	Fallback  bool // true when the profile fetch failed and roles are empty
	SignedIn  time.Time
}

// SessionAuditRecorder records sign-in/sign-out events. Recording is
// best-effort; callers log failures and move on.
type SessionAuditRecorder interface {
	RecordSignIn(ctx context.Context, rec SignInRecord) error
	RecordSignOut(ctx context.Context, sessionID, userID string) error
}
