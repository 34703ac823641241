package service

import (
	"context"
	"sync"
	"time"

	domainauth "github.com/contentdesk/admin-gateway/internal/domain/auth"
	"golang.org/x/oauth2"
)

// SessionPhase is the lifecycle phase of a session's merge state machine.
type SessionPhase string

const (
	// PhaseUninitialized means no identity emission has been processed yet.
	PhaseUninitialized SessionPhase = "uninitialized"
	// PhaseResolving means a merge attempt is in flight.
	PhaseResolving SessionPhase = "resolving"
	// PhaseReady means the latest authoritative merge has completed. The
	// session only leaves READY to re-enter RESOLVING on a fresh emission.
	PhaseReady SessionPhase = "ready"
)

// Session is the per-principal authorization state machine. It merges
// identity-provider emissions with backend profile fetches into one
// authoritative CurrentUser, tracks a monotonic initialized flag, and answers
// the composed access check used by the route gate.
//
// Overlapping merges are resolved last-write-wins: every merge attempt is
// tagged with a monotonically increasing counter and a result is applied only
// if no newer attempt has started since. Superseded results are discarded,
// not aborted.
type Session struct {
	ID string

	mu            sync.Mutex
	phase         SessionPhase
	user          *domainauth.CurrentUser
	identity      *domainauth.Identity
	authenticated bool
	initialized   bool
	attempt       uint64
	tokens        oauth2.TokenSource
	expiresAt     time.Time

	// initCh is closed exactly once, when initialized first becomes true.
	initCh chan struct{}
}

// NewSession creates a session in the UNINITIALIZED phase.
func NewSession(id string) *Session {
	return &Session{
		ID:     id,
		phase:  PhaseUninitialized,
		initCh: make(chan struct{}),
	}
}

// rehydrateSession reconstructs a READY session from a persisted snapshot.
// The original merge completed in a previous process, so initialized starts
// true. Token sources are not persisted; outbound decoration is best-effort
// until the next login.
func rehydrateSession(id string, user *domainauth.CurrentUser, expiresAt time.Time) *Session {
	s := NewSession(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseReady
	s.user = user
	s.authenticated = user != nil
	s.expiresAt = expiresAt
	s.initialized = true
	close(s.initCh)
	return s
}

// SetIdentity records a fresh identity emission synchronously, before the
// merge runs. The authenticated flag therefore leads the merge result, which
// is exactly the race the ordered access check exists to absorb. A nil
// identity (sign-out) also clears the current user immediately so anything
// still reading the session updates before any redirect fires.
func (s *Session) SetIdentity(identity *domainauth.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
	s.authenticated = identity != nil
	if identity == nil {
		s.user = nil
		s.tokens = nil
	}
}

// StartMerge begins a new merge attempt and returns its tag. Any attempt with
// a lower tag is superseded from this point on.
func (s *Session) StartMerge() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseResolving
	s.attempt++
	return s.attempt
}

// CompleteMerge applies a merge result if it is still authoritative. Returns
// false when a newer attempt started in the meantime; the stale result is
// dropped on the floor. On apply, the session enters READY and initialized
// becomes true (exactly once, never reverting).
func (s *Session) CompleteMerge(tag uint64, user *domainauth.CurrentUser) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tag != s.attempt {
		return false
	}
	s.phase = PhaseReady
	s.user = user
	if !s.initialized {
		s.initialized = true
		close(s.initCh)
	}
	return true
}

// ClearUser clears the current user in place without touching initialized.
// Used on logout: the gate only needs "has a merge ever completed", not "is a
// merge currently fresh".
func (s *Session) ClearUser() {
	s.SetIdentity(nil)
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() SessionPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// User returns a copy of the current user, or nil. Callers must consult
// Initialized to distinguish "not authenticated" from "not yet resolved".
func (s *Session) User() *domainauth.CurrentUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Clone()
}

// Identity returns the last-seen identity emission, or nil.
func (s *Session) Identity() *domainauth.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	cp := *s.identity
	return &cp
}

// Authenticated reports the identity provider's view of this session. It may
// be true before the profile merge has completed.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Initialized reports whether a merge has ever completed for this session.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// WaitInitialized blocks until initialized becomes true or ctx is done.
func (s *Session) WaitInitialized(ctx context.Context) error {
	select {
	case <-s.initCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CheckAccess is the composed, order-dependent admin check:
//
//  1. If the provider does not consider this session authenticated, the
//     answer is false immediately.
//  2. Otherwise wait for initialized; the provider can report authenticated
//     before the profile merge (and therefore roles) has settled, and
//     answering early would race.
//  3. Evaluate HasAdminAccess on the settled user.
func (s *Session) CheckAccess(ctx context.Context) (bool, error) {
	if !s.Authenticated() {
		return false, nil
	}
	if err := s.WaitInitialized(ctx); err != nil {
		return false, err
	}
	return domainauth.HasAdminAccess(s.User()), nil
}

// SetTokenSource installs the credential source obtained at exchange time.
func (s *Session) SetTokenSource(ts oauth2.TokenSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = ts
}

// TokenSource returns the session's credential source, or nil when absent.
func (s *Session) TokenSource() oauth2.TokenSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

// SetExpiresAt records the absolute session expiry from the provider.
func (s *Session) SetExpiresAt(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresAt = t
}

// ExpiresAt returns the absolute session expiry.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// Expired reports whether the session is past its provider-issued expiry.
func (s *Session) Expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.expiresAt.IsZero() && now.After(s.expiresAt)
}
