// Package mocks provides generated mock implementations for testing.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the ports interfaces. The mocks are generated using go:generate directives
// and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	fetcher := mocks.NewMockProfileFetcher(ctrl)
//	fetcher.EXPECT().FetchProfile(gomock.Any(), gomock.Any()).Return(profile, nil)
package mocks

// Generate mock for the ProfileFetcher interface from internal/ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=profile_fetcher_mock.go github.com/contentdesk/admin-gateway/internal/ports ProfileFetcher

// Generate mock for the SessionAuditRecorder interface from internal/ports.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=session_audit_recorder_mock.go github.com/contentdesk/admin-gateway/internal/ports SessionAuditRecorder
