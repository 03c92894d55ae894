package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ShutdownTimeout controls how long in-flight requests may drain on shutdown.
var ShutdownTimeout = 10 * time.Second

// Server wraps http.Server with timeouts sized for media uploads.
type Server struct {
	inner *http.Server
}

// New constructs a server listening on port. Body reads and response writes
// may take up to transferTimeout so large video uploads are not cut off.
func New(port int, handler http.Handler, transferTimeout time.Duration) *Server {
	if transferTimeout <= 0 {
		transferTimeout = 30 * time.Second
	}
	return &Server{
		inner: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       transferTimeout,
			WriteTimeout:      2 * transferTimeout,
			IdleTimeout:       time.Minute,
		},
	}
}

// Addr reports the configured listen address.
func (s *Server) Addr() string {
	return s.inner.Addr
}

// Run serves until ctx is done or the listener fails, then drains in-flight
// requests for up to ShutdownTimeout.
func (s *Server) Run(ctx context.Context, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.inner.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down http server", "reason", context.Cause(ctx))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	return s.inner.Shutdown(shutdownCtx)
}
