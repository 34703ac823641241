package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/contentdesk/admin-gateway/internal/service"
)

// RunConfig groups everything the gateway lifecycle manages.
type RunConfig struct {
	Server   *http.Server
	Sessions *service.SessionManager
	Logger   *slog.Logger
}

// Run blocks until SIGINT/SIGTERM, then shuts the server down gracefully.
func Run(ctx context.Context, cfg RunConfig) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return ShutdownHTTPServer(ShutdownConfig{
			Context:  context.Background(),
			Server:   cfg.Server,
			Sessions: cfg.Sessions,
			Logger:   cfg.Logger,
		})
	})

	return g.Wait()
}
