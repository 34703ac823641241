package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/contentdesk/admin-gateway/internal/domain/auth"
	"github.com/contentdesk/admin-gateway/internal/mocks"
	mocksauth "github.com/contentdesk/admin-gateway/internal/mocks/auth"
	"github.com/contentdesk/admin-gateway/internal/ports"
)

func mockManager(t *testing.T, profiles ports.ProfileFetcher, audit ports.SessionAuditRecorder) *SessionManager {
	t.Helper()
	mgr, err := NewSessionManager(SessionManagerOptions{
		Provider:   mocksauth.NewMockIdentityProvider(),
		Profiles:   profiles,
		ReturnURLs: mocksauth.NewMemoryReturnURLStore(),
		Audit:      audit,
		Logger:     slog.Default(),
	})
	require.NoError(t, err)
	t.Cleanup(mgr.Close)
	return mgr
}

func TestSessionManager_ProfileInputCarriesIdentityAndTokens(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockProfileFetcher(ctrl)

	var gotInput ports.FetchProfileInput
	fetcher.EXPECT().
		FetchProfile(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in ports.FetchProfileInput) (domainauth.Profile, error) {
			gotInput = in
			return domainauth.Profile{ID: in.Identity.Subject, Roles: []string{"Admin"}}, nil
		})

	mgr := mockManager(t, fetcher, nil)

	begin, err := mgr.BeginLogin(context.Background(), "/")
	require.NoError(t, err)
	result, err := mgr.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: begin.State})
	require.NoError(t, err)

	s, ok := mgr.Get(context.Background(), result.SessionID)
	require.True(t, ok)
	require.NoError(t, s.WaitInitialized(context.Background()))

	assert.Equal(t, "mock-user-1", gotInput.Identity.Subject)
	require.NotNil(t, gotInput.Tokens, "profile fetch authenticates with the session's token source")
	tok, err := gotInput.Tokens.Token()
	require.NoError(t, err)
	assert.Equal(t, "mock-token", tok.AccessToken)
}

func TestSessionManager_FetchFailureAuditedAsFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockProfileFetcher(ctrl)
	audit := mocks.NewMockSessionAuditRecorder(ctrl)

	fetcher.EXPECT().
		FetchProfile(gomock.Any(), gomock.Any()).
		Return(domainauth.Profile{}, errors.New("backend down"))

	recorded := make(chan ports.SignInRecord, 1)
	audit.EXPECT().
		RecordSignIn(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec ports.SignInRecord) error {
			recorded <- rec
			return nil
		})

	mgr := mockManager(t, fetcher, audit)

	begin, err := mgr.BeginLogin(context.Background(), "/")
	require.NoError(t, err)
	result, err := mgr.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: begin.State})
	require.NoError(t, err)

	s, ok := mgr.Get(context.Background(), result.SessionID)
	require.True(t, ok)
	require.NoError(t, s.WaitInitialized(context.Background()))

	select {
	case rec := <-recorded:
		assert.True(t, rec.Fallback)
		assert.Equal(t, result.SessionID, rec.SessionID)
		assert.Empty(t, rec.Roles)
	case <-time.After(2 * time.Second):
		t.Fatal("sign-in was not audited")
	}

	user := s.User()
	require.NotNil(t, user)
	assert.Empty(t, user.Roles)
}

func TestSessionManager_LogoutAuditsSignOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockProfileFetcher(ctrl)
	audit := mocks.NewMockSessionAuditRecorder(ctrl)

	fetcher.EXPECT().
		FetchProfile(gomock.Any(), gomock.Any()).
		Return(domainauth.Profile{ID: "u1", Roles: []string{"Admin"}}, nil)

	signedIn := make(chan struct{})
	audit.EXPECT().
		RecordSignIn(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, ports.SignInRecord) error {
			close(signedIn)
			return nil
		})

	mgr := mockManager(t, fetcher, audit)

	begin, err := mgr.BeginLogin(context.Background(), "/")
	require.NoError(t, err)
	result, err := mgr.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: begin.State})
	require.NoError(t, err)

	s, ok := mgr.Get(context.Background(), result.SessionID)
	require.True(t, ok)
	require.NoError(t, s.WaitInitialized(context.Background()))

	select {
	case <-signedIn:
	case <-time.After(2 * time.Second):
		t.Fatal("sign-in was not audited")
	}

	audit.EXPECT().RecordSignOut(gomock.Any(), result.SessionID, "u1").Return(nil)
	require.NoError(t, mgr.Logout(context.Background(), LogoutInput{SessionID: result.SessionID}))
}
