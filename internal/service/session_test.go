package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/contentdesk/admin-gateway/internal/domain/auth"
)

func adminUser() *domainauth.CurrentUser {
	return &domainauth.CurrentUser{ID: "u1", Email: "u1@example.com", Roles: []string{"Admin"}}
}

func memberUser() *domainauth.CurrentUser {
	return &domainauth.CurrentUser{ID: "u2", Email: "u2@example.com", Roles: []string{"member"}}
}

func TestSession_InitialPhase(t *testing.T) {
	s := NewSession("s1")

	assert.Equal(t, PhaseUninitialized, s.Phase())
	assert.False(t, s.Authenticated())
	assert.False(t, s.Initialized())
	assert.Nil(t, s.User())
}

func TestSession_MergeLifecycle(t *testing.T) {
	s := NewSession("s1")
	s.SetIdentity(&domainauth.Identity{Subject: "u1"})
	assert.True(t, s.Authenticated())
	assert.False(t, s.Initialized())

	tag := s.StartMerge()
	assert.Equal(t, PhaseResolving, s.Phase())

	applied := s.CompleteMerge(tag, adminUser())
	assert.True(t, applied)
	assert.Equal(t, PhaseReady, s.Phase())
	assert.True(t, s.Initialized())
	require.NotNil(t, s.User())
	assert.Equal(t, "u1", s.User().ID)
}

func TestSession_LastWriteWins(t *testing.T) {
	s := NewSession("s1")
	s.SetIdentity(&domainauth.Identity{Subject: "u1"})

	stale := s.StartMerge()
	fresh := s.StartMerge()

	// The newer attempt lands first.
	assert.True(t, s.CompleteMerge(fresh, adminUser()))

	// The stale result is discarded; the applied user is unchanged.
	assert.False(t, s.CompleteMerge(stale, memberUser()))
	require.NotNil(t, s.User())
	assert.Equal(t, "u1", s.User().ID)
}

func TestSession_InitializedIsMonotonic(t *testing.T) {
	s := NewSession("s1")
	s.SetIdentity(&domainauth.Identity{Subject: "u1"})
	s.CompleteMerge(s.StartMerge(), adminUser())
	require.True(t, s.Initialized())

	// Logout clears the user but not initialized.
	s.ClearUser()
	assert.False(t, s.Authenticated())
	assert.Nil(t, s.User())
	assert.True(t, s.Initialized())

	// A later sign-in merge keeps initialized true and must not re-close initCh.
	s.SetIdentity(&domainauth.Identity{Subject: "u1"})
	s.CompleteMerge(s.StartMerge(), adminUser())
	assert.True(t, s.Initialized())
}

func TestSession_UserIsACopy(t *testing.T) {
	s := NewSession("s1")
	s.SetIdentity(&domainauth.Identity{Subject: "u1"})
	s.CompleteMerge(s.StartMerge(), adminUser())

	u := s.User()
	u.Roles[0] = "mutated"

	assert.Equal(t, "Admin", s.User().Roles[0])
}

func TestSession_ClearUserDropsTokens(t *testing.T) {
	s := NewSession("s1")
	s.SetIdentity(&domainauth.Identity{Subject: "u1"})
	s.SetTokenSource(staticTokenSource("tok"))
	require.NotNil(t, s.TokenSource())

	s.ClearUser()
	assert.Nil(t, s.TokenSource())
}

func TestSession_CheckAccess_UnauthenticatedImmediate(t *testing.T) {
	s := NewSession("s1")

	// Must not block even though initialized is false.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	allowed, err := s.CheckAccess(ctx)

	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestSession_CheckAccess_WaitsForInitialized(t *testing.T) {
	s := NewSession("s1")
	s.SetIdentity(&domainauth.Identity{Subject: "u1"})
	tag := s.StartMerge()

	done := make(chan bool, 1)
	go func() {
		allowed, err := s.CheckAccess(context.Background())
		assert.NoError(t, err)
		done <- allowed
	}()

	// The check must not answer before the merge completes.
	select {
	case <-done:
		t.Fatal("CheckAccess answered before the merge settled")
	case <-time.After(50 * time.Millisecond):
	}

	s.CompleteMerge(tag, adminUser())

	select {
	case allowed := <-done:
		assert.True(t, allowed)
	case <-time.After(time.Second):
		t.Fatal("CheckAccess did not answer after the merge settled")
	}
}

func TestSession_CheckAccess_ContextCancellation(t *testing.T) {
	s := NewSession("s1")
	s.SetIdentity(&domainauth.Identity{Subject: "u1"})
	s.StartMerge() // never completes

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	allowed, err := s.CheckAccess(ctx)
	require.Error(t, err)
	assert.False(t, allowed)
}

func TestSession_CheckAccess_DeniesBaseRoles(t *testing.T) {
	s := NewSession("s1")
	s.SetIdentity(&domainauth.Identity{Subject: "u2"})
	s.CompleteMerge(s.StartMerge(), memberUser())

	allowed, err := s.CheckAccess(context.Background())
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestSession_Expired(t *testing.T) {
	s := NewSession("s1")
	assert.False(t, s.Expired(time.Now()), "zero expiry never expires")

	s.SetExpiresAt(time.Now().Add(-time.Minute))
	assert.True(t, s.Expired(time.Now()))

	s.SetExpiresAt(time.Now().Add(time.Hour))
	assert.False(t, s.Expired(time.Now()))
}

func TestRehydrateSession(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	s := rehydrateSession("s1", adminUser(), exp)

	assert.Equal(t, PhaseReady, s.Phase())
	assert.True(t, s.Authenticated())
	assert.True(t, s.Initialized())
	assert.WithinDuration(t, exp, s.ExpiresAt(), time.Second)

	allowed, err := s.CheckAccess(context.Background())
	require.NoError(t, err)
	assert.True(t, allowed)
}
