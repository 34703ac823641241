package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/contentdesk/admin-gateway/internal/bootstrap"
	"github.com/contentdesk/admin-gateway/internal/data"
	httpx "github.com/contentdesk/admin-gateway/internal/http"
	"github.com/contentdesk/admin-gateway/internal/ports"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting admin gateway",
		"auth_mode", cfg.Auth.Mode,
		"backend", cfg.Backend.BaseURL,
		"audit_db", cfg.Postgres.Enabled)

	redisClient, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cfg.Redis,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}()

	var (
		db          *sql.DB
		audit       ports.SessionAuditRecorder
		auditLister httpx.AuditLister
	)
	if cfg.Postgres.Enabled {
		db, err = bootstrap.ConnectDB(bootstrap.DatabaseConfig{
			DBConfig: cfg.Postgres,
			Logger:   logger,
		})
		if err != nil {
			return fmt.Errorf("connect db: %w", err)
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close database failed", "error", cerr)
			}
		}()

		if cfg.Postgres.RunMigrationsOnStart {
			if err = bootstrap.RunMigrations(ctx, db, logger); err != nil {
				return err
			}
		} else {
			logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		}

		repo := data.NewSessionAuditRepo(db)
		audit = repo
		auditLister = repo
	}

	sessions, err := bootstrap.BuildSessionManager(bootstrap.SessionManagerConfig{
		Config:      &cfg,
		RedisClient: redisClient,
		Audit:       audit,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build session manager: %w", err)
	}

	proxy, err := bootstrap.BuildBackendProxy(&cfg, logger)
	if err != nil {
		return fmt.Errorf("build backend proxy: %w", err)
	}

	server := bootstrap.StartHTTPServer(&bootstrap.HTTPServerConfig{
		Config:       &cfg,
		Sessions:     sessions,
		BackendProxy: proxy,
		Audit:        auditLister,
		Logger:       logger,
	})

	return bootstrap.Run(ctx, bootstrap.RunConfig{
		Server:   server,
		Sessions: sessions,
		Logger:   logger,
	})
}
