package backend

// Package backend provides adapters for the remote admin API: the profile
// fetcher and the outbound bearer decoration transport.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/contentdesk/admin-gateway/internal/domain/auth"
	"github.com/contentdesk/admin-gateway/internal/ports"
	jmespath "github.com/jmespath-community/go-jmespath"
)

const (
	defaultProfilePath  = "/api/users/me"
	defaultRolesExpr    = "roles"
	defaultFetchTimeout = 15 * time.Second
)

// FetchError is the typed failure surfaced when the profile endpoint cannot
// produce a usable record. The session pipeline recovers from it with an
// identity-only fallback user; it is never retried here.
type FetchError struct {
	StatusCode int // zero when the request never got a response
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("profile fetch: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("profile fetch: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ProfileFetcherOptions configures the HTTP profile fetcher.
type ProfileFetcherOptions struct {
	// BaseURL of the remote admin API, e.g. "https://api.example.com".
	BaseURL string
	// ProfilePath is the profile endpoint path. Default /api/users/me.
	ProfilePath string
	// RolesExpr is a JMESPath expression locating the role list inside the
	// profile payload. Backends disagree on payload shape; the default
	// expects a top-level "roles" array of strings.
	RolesExpr string
	// HTTPClient is optional. The client's timeout is the only timeout this
	// fetcher applies.
	HTTPClient *http.Client
}

// ProfileFetcher implements ports.ProfileFetcher against the remote admin
// API. One request per fetch, no retries.
type ProfileFetcher struct {
	endpoint  string
	rolesExpr string
	client    *http.Client
}

// NewProfileFetcher validates the options and the roles expression.
func NewProfileFetcher(opts ProfileFetcherOptions) (*ProfileFetcher, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("backend base URL is required")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend base URL %q", opts.BaseURL)
	}

	path := opts.ProfilePath
	if path == "" {
		path = defaultProfilePath
	}
	expr := opts.RolesExpr
	if expr == "" {
		expr = defaultRolesExpr
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, fmt.Errorf("compile roles expression %q: %w", expr, err)
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}

	return &ProfileFetcher{
		endpoint:  strings.TrimSuffix(base.String(), "/") + path,
		rolesExpr: expr,
		client:    client,
	}, nil
}

// FetchProfile performs the single profile read for the authenticated
// identity. Absence of roles in the payload is an empty role list, never
// "unknown/all roles".
func (f *ProfileFetcher) FetchProfile(ctx context.Context, in ports.FetchProfileInput) (domainauth.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return domainauth.Profile{}, &FetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in.Tokens != nil {
		if tok, tokErr := in.Tokens.Token(); tokErr == nil && tok.AccessToken != "" {
			tok.SetAuthHeader(req)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return domainauth.Profile{}, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domainauth.Profile{}, &FetchError{StatusCode: resp.StatusCode}
	}

	var payload map[string]any
	if decodeErr := json.NewDecoder(resp.Body).Decode(&payload); decodeErr != nil {
		return domainauth.Profile{}, &FetchError{Err: fmt.Errorf("decode profile payload: %w", decodeErr)}
	}

	profile := domainauth.Profile{
		ID:    stringField(payload, "id"),
		Email: stringField(payload, "email"),
		Name:  stringField(payload, "name"),
		Photo: stringField(payload, "photo"),
		Roles: []string{},
	}

	extracted, err := jmespath.Search(f.rolesExpr, payload)
	if err != nil {
		return domainauth.Profile{}, &FetchError{Err: fmt.Errorf("extract roles: %w", err)}
	}
	profile.Roles = coerceRoles(extracted)

	return profile, nil
}

func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

// coerceRoles turns a JMESPath result into a role list, preserving the
// backend-provided casing. Anything unrecognizable collapses to zero roles.
func coerceRoles(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case string:
		if val == "" {
			return []string{}
		}
		return []string{val}
	default:
		return []string{}
	}
}

var _ ports.ProfileFetcher = (*ProfileFetcher)(nil)
