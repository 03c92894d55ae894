// Package app wires configuration, the backend driver and the HTTP surface
// into the aora command.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aora/backend/internal/config"
	"github.com/aora/backend/internal/handlers"
	"github.com/aora/backend/internal/httpserver"
	"github.com/aora/backend/internal/logging"
	"github.com/aora/backend/internal/middleware"
)

// Run dispatches one of the serve, migrate or seed commands.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch args[0] {
	case "serve":
		return serve(ctx, cfg)
	case "migrate":
		return runMigrations(ctx, cfg, args[1:])
	case "seed":
		return runSeed(ctx, cfg, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := logging.New(os.Stdout, cfg.SlogLevel())
	logger = logger.With("service", "aora-gateway")
	logger.Debug("configuration loaded", "driver", cfg.Backend.Driver, "sessionStore", cfg.SessionStore.Driver, "objectStore", cfg.ObjectStore.Driver)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := httpserver.New(cfg.AppPort, newHandler(logger, deps), cfg.Backend.RequestTimeout)
	logger.Info("starting http server", "addr", srv.Addr(), "backend", cfg.Backend.Driver)

	if err := srv.Run(ctx, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("http server stopped")
	return nil
}

// newHandler routes deps and wraps the mux so every request carries a
// logger and, when present, the caller's session.
func newHandler(logger *slog.Logger, deps handlers.Dependencies) http.Handler {
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)
	return middleware.RequestLogger(logger)(middleware.Session(mux))
}
