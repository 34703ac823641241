package config

import "time"

// BackendConfig describes the backend origin the gateway fronts.
type BackendConfig struct {
	// BaseURL is the backend origin, e.g. "https://api.internal.example.com".
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:9000"`

	// ProfilePath is the backend endpoint returning the caller's profile.
	ProfilePath string `env:"PROFILE_PATH" envDefault:"/api/users/me"`

	// RolesExpr is the JMESPath expression locating roles in the profile payload.
	RolesExpr string `env:"ROLES_EXPR" envDefault:"roles"`

	// RequestTimeout bounds outbound backend requests.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	// ExemptHosts lists hosts that never receive credential decoration,
	// beyond the identity provider's own host (always exempt).
	ExemptHosts []string `env:"EXEMPT_HOSTS" envSeparator:";"`
}

// Sanitize applies guardrails to backend configuration values.
func (b *BackendConfig) Sanitize() {
	if b.RequestTimeout <= 0 {
		b.RequestTimeout = 15 * time.Second
	}
	if b.ProfilePath == "" {
		b.ProfilePath = "/api/users/me"
	}
	if b.RolesExpr == "" {
		b.RolesExpr = "roles"
	}
}
