package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"
)

func TestNewAppliesTransferTimeout(t *testing.T) {
	srv := New(8080, http.NotFoundHandler(), time.Minute)

	if srv.Addr() != ":8080" {
		t.Fatalf("unexpected addr %s", srv.Addr())
	}
	if srv.inner.ReadTimeout != time.Minute || srv.inner.WriteTimeout != 2*time.Minute {
		t.Fatalf("unexpected timeouts read=%v write=%v", srv.inner.ReadTimeout, srv.inner.WriteTimeout)
	}

	srv = New(8080, http.NotFoundHandler(), 0)
	if srv.inner.ReadTimeout != 30*time.Second {
		t.Fatalf("expected default transfer timeout, got %v", srv.inner.ReadTimeout)
	}
}

func TestRunStopsWhenContextIsCanceled(t *testing.T) {
	srv := New(0, http.NotFoundHandler(), time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, slog.Default())
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
