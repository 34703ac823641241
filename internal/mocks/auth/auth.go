package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/contentdesk/admin-gateway/internal/domain/auth"
	"github.com/contentdesk/admin-gateway/internal/ports"
	"golang.org/x/oauth2"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider     = (*MockIdentityProvider)(nil)
	_ ports.ProfileFetcher       = (*StubProfileFetcher)(nil)
	_ ports.ReturnURLStore       = (*MemoryReturnURLStore)(nil)
	_ ports.SessionSnapshotStore = (*MemorySnapshotStore)(nil)
	_ ports.SessionAuditRecorder = (*RecordingAuditRecorder)(nil)
)

// ErrNotFound is returned by mocks when an entity is not present.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}

// MockIdentityProvider simulates an IdP for tests with deterministic
// state/nonce handling.
type MockIdentityProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (ports.BeginResult, error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (ports.ExchangeResult, error)

	// Deterministic values for predictable testing
	AuthURL         string
	DefaultIdentity domainauth.Identity
	SessionTTL      time.Duration
	LogoutBase      string

	callCount int
}

// NewMockIdentityProvider creates a MockIdentityProvider with sensible defaults.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		AuthURL: "https://mock-idp/auth",
		DefaultIdentity: domainauth.Identity{
			Subject: "mock-user-1",
			Email:   "mock.user@example.com",
			Name:    "Mock User",
		},
		SessionTTL: time.Hour,
	}
}

func (m *MockIdentityProvider) Begin(ctx context.Context, in ports.BeginInput) (ports.BeginResult, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	return ports.BeginResult{
		AuthURL: m.AuthURL,
		State:   fmt.Sprintf("state-%d", m.callCount),
		Nonce:   fmt.Sprintf("nonce-%d", m.callCount),
	}, nil
}

func (m *MockIdentityProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (ports.ExchangeResult, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	return ports.ExchangeResult{
		Identity:  m.DefaultIdentity,
		Tokens:    oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "mock-token", TokenType: "Bearer"}),
		ExpiresAt: time.Now().Add(m.SessionTTL),
	}, nil
}

func (m *MockIdentityProvider) LogoutURL(returnTo string) string {
	if m.LogoutBase == "" {
		return returnTo
	}
	return m.LogoutBase + "?post_logout_redirect_uri=" + returnTo
}

// StubProfileFetcher answers profile fetches from a fixed profile or a
// caller-supplied function. The zero value returns an identity-shaped profile
// with no roles.
type StubProfileFetcher struct {
	Profile *domainauth.Profile
	Err     error
	Func    func(ctx context.Context, in ports.FetchProfileInput) (domainauth.Profile, error)

	mu    sync.Mutex
	calls int
}

func (f *StubProfileFetcher) FetchProfile(ctx context.Context, in ports.FetchProfileInput) (domainauth.Profile, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.Func != nil {
		return f.Func(ctx, in)
	}
	if f.Err != nil {
		return domainauth.Profile{}, f.Err
	}
	if f.Profile != nil {
		return *f.Profile, nil
	}
	return domainauth.Profile{
		ID:    in.Identity.Subject,
		Email: in.Identity.Email,
		Name:  in.Identity.Name,
		Roles: []string{},
	}, nil
}

// Calls reports how many times FetchProfile was invoked.
func (f *StubProfileFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// MemoryReturnURLStore is an in-memory return URL store for unit tests.
type MemoryReturnURLStore struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemoryReturnURLStore creates a new in-memory return URL store.
func NewMemoryReturnURLStore() *MemoryReturnURLStore {
	return &MemoryReturnURLStore{entries: make(map[string]string)}
}

func (s *MemoryReturnURLStore) Save(_ context.Context, state, returnURL string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[state] = returnURL
	return nil
}

func (s *MemoryReturnURLStore) Take(_ context.Context, state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[state]
	if !ok {
		return "", ErrNotFound
	}
	delete(s.entries, state)
	return v, nil
}

func (s *MemoryReturnURLStore) Delete(_ context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, state)
	return nil
}

// Len reports the number of pending entries.
func (s *MemoryReturnURLStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// MemorySnapshotStore is an in-memory session snapshot store for unit tests.
type MemorySnapshotStore struct {
	mu        sync.Mutex
	snapshots map[string]ports.SessionSnapshot
}

// NewMemorySnapshotStore creates a new in-memory snapshot store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{snapshots: make(map[string]ports.SessionSnapshot)}
}

func (s *MemorySnapshotStore) Save(_ context.Context, snap ports.SessionSnapshot) error {
	if snap.ID == "" {
		return errors.New("snapshot ID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.ID] = snap
	return nil
}

func (s *MemorySnapshotStore) Get(_ context.Context, id string) (ports.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[id]
	if !ok {
		return ports.SessionSnapshot{}, ErrNotFound
	}
	return snap, nil
}

func (s *MemorySnapshotStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, id)
	return nil
}

// Has reports whether a snapshot exists for the given ID.
func (s *MemorySnapshotStore) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.snapshots[id]
	return ok
}

// RecordingAuditRecorder captures audit calls for assertions.
type RecordingAuditRecorder struct {
	mu       sync.Mutex
	SignIns  []ports.SignInRecord
	SignOuts []string // session IDs
}

func (r *RecordingAuditRecorder) RecordSignIn(_ context.Context, rec ports.SignInRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SignIns = append(r.SignIns, rec)
	return nil
}

func (r *RecordingAuditRecorder) RecordSignOut(_ context.Context, sessionID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SignOuts = append(r.SignOuts, sessionID)
	return nil
}

// SignInCount reports recorded sign-ins.
func (r *RecordingAuditRecorder) SignInCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.SignIns)
}

// SignOutCount reports recorded sign-outs.
func (r *RecordingAuditRecorder) SignOutCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.SignOuts)
}
