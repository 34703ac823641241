package backend

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// TokenFunc resolves the bearer credential for an outbound request, typically
// from the session carried in the request context.
type TokenFunc func(*http.Request) (string, error)

// BearerTransportOptions configures the outbound decoration transport.
type BearerTransportOptions struct {
	// Base is the underlying transport. Default http.DefaultTransport.
	Base http.RoundTripper
	// Tokens resolves the credential per request.
	Tokens TokenFunc
	// ExemptHosts are exact hostnames that must never receive our bearer
	// credential — the identity provider's own endpoints. Matching parses
	// the request URL and compares hostnames; substring matching is a known
	// spoofing hazard and is deliberately not offered.
	ExemptHosts []string
	// ExemptRegistrableDomains additionally exempts any hostname whose
	// registrable domain (eTLD+1) matches, e.g. "auth.example.com" and
	// "login.example.com" via "example.com".
	ExemptRegistrableDomains []string
	Logger                   *slog.Logger
}

// BearerTransport attaches "Authorization: Bearer <token>" to every outbound
// request except those addressed to the identity provider. Credential
// retrieval failure forwards the original request undecorated rather than
// blocking it: the downstream service rejects unauthenticated calls, the
// transport's job is best-effort attachment, not enforcement.
type BearerTransport struct {
	base           http.RoundTripper
	tokens         TokenFunc
	exemptHosts    map[string]struct{}
	exemptEtldPlus map[string]struct{}
	logger         *slog.Logger
}

// NewBearerTransport builds the transport. Host entries are normalized to
// lower case once, up front.
func NewBearerTransport(opts BearerTransportOptions) *BearerTransport {
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	hosts := make(map[string]struct{}, len(opts.ExemptHosts))
	for _, h := range opts.ExemptHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts[h] = struct{}{}
		}
	}
	domains := make(map[string]struct{}, len(opts.ExemptRegistrableDomains))
	for _, d := range opts.ExemptRegistrableDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains[d] = struct{}{}
		}
	}

	return &BearerTransport{
		base:           base,
		tokens:         opts.Tokens,
		exemptHosts:    hosts,
		exemptEtldPlus: domains,
		logger:         logger,
	}
}

func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.tokens == nil || t.isExempt(req.URL) {
		return t.base.RoundTrip(req)
	}

	token, err := t.tokens(req)
	if err != nil || token == "" {
		if err != nil {
			t.logger.DebugContext(req.Context(), "credential retrieval failed, forwarding undecorated",
				"error", err, "host", req.URL.Hostname())
		}
		return t.base.RoundTrip(req)
	}

	// RoundTrippers must not mutate the caller's request.
	decorated := req.Clone(req.Context())
	decorated.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(decorated)
}

// isExempt compares the parsed hostname against the exempt sets. A lookalike
// host that merely contains an exempt name as a substring does not match.
func (t *BearerTransport) isExempt(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	if _, ok := t.exemptHosts[host]; ok {
		return true
	}
	if len(t.exemptEtldPlus) == 0 {
		return false
	}
	etld, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return false
	}
	_, ok := t.exemptEtldPlus[etld]
	return ok
}

// HostnamesFromURLs extracts the hostnames of the given URLs, skipping
// anything unparsable. Used to derive the exempt set from the identity
// provider's issuer and logout URLs.
func HostnamesFromURLs(rawURLs ...string) []string {
	var hosts []string
	for _, raw := range rawURLs {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Hostname() == "" {
			continue
		}
		hosts = append(hosts, u.Hostname())
	}
	return hosts
}

var _ http.RoundTripper = (*BearerTransport)(nil)
