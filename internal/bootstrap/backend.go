package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/contentdesk/admin-gateway/config"
	"github.com/contentdesk/admin-gateway/internal/adapters/backend"
	httpx "github.com/contentdesk/admin-gateway/internal/http"
)

// BuildBackendProxy constructs the credential-decorating reverse proxy for
// protected API traffic. Requests to the identity provider's own hosts are
// never decorated.
func BuildBackendProxy(cfg *config.AppConfig, logger *slog.Logger) (http.Handler, error) {
	target, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid backend base URL %q", cfg.Backend.BaseURL)
	}

	exemptHosts := backend.HostnamesFromURLs(cfg.Auth.OAuth.IssuerURL, cfg.Auth.OAuth.LogoutURL)
	exemptHosts = append(exemptHosts, cfg.Backend.ExemptHosts...)

	transport := backend.NewBearerTransport(backend.BearerTransportOptions{
		Tokens:      sessionTokenFunc,
		ExemptHosts: exemptHosts,
		Logger:      logger,
	})

	return httpx.NewBackendProxy(httpx.BackendProxyOptions{
		Target:    target,
		Transport: transport,
		Logger:    logger,
	})
}

// sessionTokenFunc resolves the bearer credential from the session the route
// gate placed in the request context.
func sessionTokenFunc(r *http.Request) (string, error) {
	s, ok := httpx.SessionFromContext(r.Context())
	if !ok {
		return "", nil
	}
	ts := s.TokenSource()
	if ts == nil {
		return "", nil
	}
	tok, err := ts.Token()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}
