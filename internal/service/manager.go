package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	domainauth "github.com/contentdesk/admin-gateway/internal/domain/auth"
	"github.com/contentdesk/admin-gateway/internal/ports"
	"github.com/google/uuid"
)

// defaultSessionTTL bounds sessions whose provider did not supply an expiry.
const defaultSessionTTL = 8 * time.Hour

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Provider   ports.IdentityProvider
	Profiles   ports.ProfileFetcher
	ReturnURLs ports.ReturnURLStore
	Snapshots  ports.SessionSnapshotStore // optional, enables restart survival
	Audit      ports.SessionAuditRecorder // optional, best-effort
	Feed       *domainauth.Feed           // optional, created when nil
	Logger     *slog.Logger
}

// SessionManager owns the per-principal session state machines. It publishes
// identity emissions onto the feed, routes them into the owning Session's
// merge pipeline, and orchestrates the login, callback, and logout flows.
type SessionManager struct {
	provider   ports.IdentityProvider
	profiles   ports.ProfileFetcher
	returnURLs ports.ReturnURLStore
	snapshots  ports.SessionSnapshotStore
	audit      ports.SessionAuditRecorder
	feed       *domainauth.Feed
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session

	unsubscribe func()
	done        chan struct{}
}

// NewSessionManager constructs a SessionManager and starts its emission
// routing loop. Callers must Close it on teardown.
func NewSessionManager(opts SessionManagerOptions) (*SessionManager, error) {
	if opts.Provider == nil {
		return nil, errors.New("identity provider is required")
	}
	if opts.Profiles == nil {
		return nil, errors.New("profile fetcher is required")
	}
	if opts.ReturnURLs == nil {
		return nil, errors.New("return URL store is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	feed := opts.Feed
	if feed == nil {
		feed = domainauth.NewFeed()
	}

	m := &SessionManager{
		provider:   opts.Provider,
		profiles:   opts.Profiles,
		returnURLs: opts.ReturnURLs,
		snapshots:  opts.Snapshots,
		audit:      opts.Audit,
		feed:       feed,
		logger:     logger,
		sessions:   make(map[string]*Session),
		done:       make(chan struct{}),
	}

	unsub, events := feed.Subscribe()
	m.unsubscribe = unsub
	go m.routeEmissions(events)

	return m, nil
}

// Feed exposes the identity change feed for additional subscribers.
func (m *SessionManager) Feed() *domainauth.Feed {
	return m.feed
}

// Close stops emission routing. Pending merges finish and are discarded or
// applied per the usual last-write-wins rules.
func (m *SessionManager) Close() {
	m.unsubscribe()
	<-m.done
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin validates the intended destination, persists it keyed by the
// flow's state, and returns the provider URL to redirect the browser to. The
// return URL is persisted before the redirect is issued so a completed
// callback can always recover it.
func (m *SessionManager) BeginLogin(ctx context.Context, returnURL string) (*BeginLoginResult, error) {
	returnURL = SafeReturnPath(returnURL)

	res, err := m.provider.Begin(ctx, ports.BeginInput{ReturnURL: returnURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	if err := m.returnURLs.Save(ctx, res.State, returnURL); err != nil {
		return nil, fmt.Errorf("save return URL: %w", err)
	}

	return &BeginLoginResult{AuthURL: res.AuthURL, State: res.State, Nonce: res.Nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLoginResult contains the new session and where to send the browser.
type CompleteLoginResult struct {
	SessionID string
	ExpiresAt time.Time
	ReturnURL string
}

// CompleteLogin exchanges the authorization code, creates the session state
// machine, and publishes the identity emission that drives the profile merge.
// The merge resolves asynchronously; the route gate's ordered check absorbs
// the window between "authenticated" and "initialized".
func (m *SessionManager) CompleteLogin(ctx context.Context, in CompleteLoginInput) (*CompleteLoginResult, error) {
	if in.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if in.State == "" {
		return nil, errors.New("state parameter is required")
	}

	ex, err := m.provider.Exchange(ctx, ports.ExchangeInput{Code: in.Code, State: in.State, Nonce: in.Nonce})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	expiresAt := ex.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(defaultSessionTTL)
	}

	s := NewSession(uuid.New().String())
	s.SetExpiresAt(expiresAt)
	s.SetTokenSource(ex.Tokens)

	identity := ex.Identity
	s.SetIdentity(&identity)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.publish(domainauth.Event{SessionID: s.ID, Identity: &identity})

	returnURL, err := m.returnURLs.Take(ctx, in.State)
	if err != nil || returnURL == "" {
		if err != nil && !errors.Is(err, context.Canceled) {
			m.logger.WarnContext(ctx, "pending return URL unavailable", "error", err, "state", in.State)
		}
		returnURL = "/"
	}

	return &CompleteLoginResult{SessionID: s.ID, ExpiresAt: expiresAt, ReturnURL: returnURL}, nil
}

// Refresh re-publishes the session's current identity as a fresh emission,
// e.g. after a silent token renewal changed claims. The resulting merge obeys
// last-write-wins against any merge already in flight.
func (m *SessionManager) Refresh(ctx context.Context, sessionID string) error {
	s, ok := m.Get(ctx, sessionID)
	if !ok {
		return errors.New("session not found")
	}
	identity := s.Identity()
	if identity == nil {
		return errors.New("session has no identity")
	}
	m.publish(domainauth.Event{SessionID: s.ID, Identity: identity})
	return nil
}

// Get returns the session for an opaque session ID. Unknown IDs are looked up
// in the snapshot store and rehydrated; expired sessions are evicted.
func (m *SessionManager) Get(ctx context.Context, sessionID string) (*Session, bool) {
	if sessionID == "" {
		return nil, false
	}

	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()

	if !ok {
		s = m.rehydrate(ctx, sessionID)
		if s == nil {
			return nil, false
		}
	}

	if s.Expired(time.Now()) {
		m.evict(ctx, s)
		return nil, false
	}
	return s, true
}

// CheckAccess runs the composed admin check for the given session ID. A
// missing session resolves to false immediately.
func (m *SessionManager) CheckAccess(ctx context.Context, sessionID string) (bool, error) {
	s, ok := m.Get(ctx, sessionID)
	if !ok {
		return false, nil
	}
	return s.CheckAccess(ctx)
}

// LogoutInput groups parameters for Logout.
type LogoutInput struct {
	SessionID string
	// PendingState, when present, names a login flow whose persisted return
	// URL should be removed along with the session.
	PendingState string
}

// Logout clears the session's user synchronously (any UI still reading the
// session updates before the redirect fires), removes the persisted return
// URL entry, drops the durable snapshot, and records the sign-out. The
// initialized flag survives: it tracks "has a merge ever completed", not
// session freshness.
func (m *SessionManager) Logout(ctx context.Context, in LogoutInput) error {
	if in.PendingState != "" {
		if err := m.returnURLs.Delete(ctx, in.PendingState); err != nil {
			m.logger.WarnContext(ctx, "delete pending return URL failed", "error", err, "state", in.PendingState)
		}
	}
	if in.SessionID == "" {
		return nil
	}

	m.mu.Lock()
	s, ok := m.sessions[in.SessionID]
	m.mu.Unlock()
	if !ok {
		// Still drop any durable snapshot left by a previous process.
		m.deleteSnapshot(ctx, in.SessionID)
		return nil
	}

	var userID string
	if u := s.User(); u != nil {
		userID = u.ID
	}

	s.ClearUser()
	m.publish(domainauth.Event{SessionID: s.ID, Identity: nil})
	m.deleteSnapshot(ctx, s.ID)

	if m.audit != nil && userID != "" {
		if err := m.audit.RecordSignOut(ctx, s.ID, userID); err != nil {
			m.logger.WarnContext(ctx, "record sign-out failed", "error", err, "session_id", s.ID)
		}
	}
	return nil
}

// LogoutURL returns the provider URL that ends the IdP session.
func (m *SessionManager) LogoutURL(returnTo string) string {
	return m.provider.LogoutURL(returnTo)
}

// routeEmissions delivers feed events into the owning session's merge
// pipeline. The merge tag is assigned here, in emission order, before the
// merge goroutine is spawned: last-write-wins must follow publication order,
// not goroutine scheduling order.
func (m *SessionManager) routeEmissions(events <-chan domainauth.Event) {
	defer close(m.done)
	for ev := range events {
		m.mu.Lock()
		s, ok := m.sessions[ev.SessionID]
		m.mu.Unlock()
		if !ok {
			continue
		}
		tag := s.StartMerge()
		go m.resolve(s, tag, ev.Identity)
	}
}

// resolve is the merge step for one identity emission, carrying the attempt
// tag assigned when the emission was routed. Profile-fetch failures fall back
// to an identity-only user with zero roles: the backend is the only source of
// roles, so the fallback fails closed rather than open.
func (m *SessionManager) resolve(s *Session, tag uint64, identity *domainauth.Identity) {
	ctx := context.Background()

	if identity == nil {
		s.CompleteMerge(tag, nil)
		return
	}

	var user *domainauth.CurrentUser
	fallback := false
	profile, err := m.profiles.FetchProfile(ctx, ports.FetchProfileInput{Identity: *identity, Tokens: s.TokenSource()})
	if err != nil {
		fallback = true
		m.logger.Warn("profile fetch failed, using identity-only user with zero roles",
			"error", err, "session_id", s.ID, "subject", identity.Subject)
		user = domainauth.FallbackUser(*identity)
	} else {
		user = domainauth.MergeUser(*identity, profile)
	}

	wasInitialized := s.Initialized()
	if !s.CompleteMerge(tag, user) {
		return // superseded by a newer emission
	}

	if m.snapshots != nil {
		snap := ports.SessionSnapshot{ID: s.ID, User: user.Clone(), ExpiresAt: s.ExpiresAt()}
		if err := m.snapshots.Save(ctx, snap); err != nil {
			m.logger.Warn("persist session snapshot failed", "error", err, "session_id", s.ID)
		}
	}

	if m.audit != nil && !wasInitialized {
		rec := ports.SignInRecord{
			SessionID: s.ID,
			UserID:    user.ID,
			Email:     user.Email,
			Roles:     append([]string(nil), user.Roles...),
			Fallback:  fallback,
			SignedIn:  time.Now().UTC(),
		}
		if err := m.audit.RecordSignIn(ctx, rec); err != nil {
			m.logger.Warn("record sign-in failed", "error", err, "session_id", s.ID)
		}
	}
}

func (m *SessionManager) publish(ev domainauth.Event) {
	if dropped := m.feed.Publish(ev); dropped > 0 {
		m.logger.Warn("identity feed dropped events for slow subscribers",
			"dropped", dropped, "session_id", ev.SessionID)
	}
}

func (m *SessionManager) rehydrate(ctx context.Context, sessionID string) *Session {
	if m.snapshots == nil {
		return nil
	}
	snap, err := m.snapshots.Get(ctx, sessionID)
	if err != nil {
		return nil
	}
	s := rehydrateSession(snap.ID, snap.User, snap.ExpiresAt)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[sessionID]; ok {
		return existing
	}
	m.sessions[sessionID] = s
	return s
}

func (m *SessionManager) evict(ctx context.Context, s *Session) {
	m.mu.Lock()
	delete(m.sessions, s.ID)
	m.mu.Unlock()
	m.deleteSnapshot(ctx, s.ID)
}

func (m *SessionManager) deleteSnapshot(ctx context.Context, sessionID string) {
	if m.snapshots == nil {
		return
	}
	if err := m.snapshots.Delete(ctx, sessionID); err != nil {
		m.logger.WarnContext(ctx, "delete session snapshot failed", "error", err, "session_id", sessionID)
	}
}

// SafeReturnPath ensures the provided destination is a same-origin relative
// path starting with "/" and not an absolute URL. Returns "/" when invalid.
func SafeReturnPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	// Browsers normalize backslashes to slashes in redirect targets, so
	// "/\evil.com" would land as protocol-relative "//evil.com".
	if strings.ContainsRune(candidate, '\\') {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
