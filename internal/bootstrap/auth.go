package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/contentdesk/admin-gateway/config"
	"github.com/contentdesk/admin-gateway/internal/adapters/backend"
	"github.com/contentdesk/admin-gateway/internal/adapters/devauth"
	"github.com/contentdesk/admin-gateway/internal/adapters/oidc"
	redisadapter "github.com/contentdesk/admin-gateway/internal/adapters/redis"
	"github.com/contentdesk/admin-gateway/internal/ports"
	"github.com/contentdesk/admin-gateway/internal/service"
	"github.com/redis/go-redis/v9"
)

// SessionManagerConfig contains configuration for the session manager.
type SessionManagerConfig struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	// Audit is optional; nil disables sign-in/sign-out recording.
	Audit  ports.SessionAuditRecorder
	Logger *slog.Logger
}

// BuildSessionManager wires the identity provider, profile fetcher, and Redis
// stores into a SessionManager based on the configured auth mode.
func BuildSessionManager(cfg SessionManagerConfig) (*service.SessionManager, error) {
	if cfg.RedisClient == nil {
		return nil, fmt.Errorf("session manager requires a redis client")
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	provider, err := buildIdentityProvider(appCfg, cfg.Logger)
	if err != nil {
		return nil, err
	}

	profiles, err := buildProfileFetcher(appCfg)
	if err != nil {
		return nil, err
	}

	return service.NewSessionManager(service.SessionManagerOptions{
		Provider:   provider,
		Profiles:   profiles,
		ReturnURLs: redisadapter.NewReturnURLStore(cfg.RedisClient),
		Snapshots:  redisadapter.NewSessionSnapshotStore(cfg.RedisClient),
		Audit:      cfg.Audit,
		Logger:     cfg.Logger,
	})
}

//nolint:ireturn // provider selection happens at runtime based on auth mode.
func buildIdentityProvider(cfg *config.AppConfig, logger *slog.Logger) (ports.IdentityProvider, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		if !cfg.IsDev && logger != nil {
			logger.Warn("mock auth mode enabled outside development")
		}
		return devauth.NewProvider(devauth.Config{
			Subject: cfg.Auth.DevAuth.Subject,
			Email:   cfg.Auth.DevAuth.Email,
			Name:    cfg.Auth.DevAuth.Name,
		})

	case config.AuthModeOAuth:
		oauth := cfg.Auth.OAuth
		if oauth.IssuerURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
			return nil, fmt.Errorf("oauth auth mode requires issuer URL, client ID, and client secret")
		}
		return oidc.NewProvider(oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			IssuerURL:    oauth.IssuerURL,
			LogoutURL:    oauth.LogoutURL,
		})

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
}

//nolint:ireturn // fetcher selection happens at runtime based on auth mode.
func buildProfileFetcher(cfg *config.AppConfig) (ports.ProfileFetcher, error) {
	if cfg.Auth.Mode == config.AuthModeMock {
		// Dev mode has no backend to ask; roles come from config.
		return devauth.StaticProfileFetcher{Roles: cfg.Auth.DevAuth.Roles}, nil
	}

	return backend.NewProfileFetcher(backend.ProfileFetcherOptions{
		BaseURL:     cfg.Backend.BaseURL,
		ProfilePath: cfg.Backend.ProfilePath,
		RolesExpr:   cfg.Backend.RolesExpr,
		HTTPClient:  &http.Client{Timeout: cfg.Backend.RequestTimeout},
	})
}
