package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestListMigrationsSortsSQLFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_files.sql", "0001_init.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "archive.sql"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := listMigrations(dir)
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	if len(got) != 2 || got[0] != "0001_init.sql" || got[1] != "0002_files.sql" {
		t.Fatalf("unexpected migrations %v", got)
	}
}

func TestListMigrationsIncludesRepositoryMigrations(t *testing.T) {
	got, err := listMigrations(filepath.Join("..", "..", "migrations"))
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	if len(got) == 0 || got[0] != "0001_init.sql" {
		t.Fatalf("unexpected migrations %v", got)
	}
}

func TestSeedFileName(t *testing.T) {
	if got := seedFileName("dev"); got != "dev_seed.sql" {
		t.Fatalf("unexpected seed file %q", got)
	}
	if got := seedFileName("custom.sql"); got != "custom.sql" {
		t.Fatalf("unexpected seed file %q", got)
	}
}

func TestMigrationBackoff(t *testing.T) {
	if got := migrationBackoff(1); got != migrationBaseBackoff {
		t.Fatalf("unexpected first backoff %v", got)
	}
	if got := migrationBackoff(2); got != 2*migrationBaseBackoff {
		t.Fatalf("unexpected second backoff %v", got)
	}
	if got := migrationBackoff(10); got != migrationMaxBackoff {
		t.Fatalf("expected backoff to be capped, got %v", got)
	}
}

func TestShouldRetryMigration(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline", err: fmt.Errorf("apply: %w", context.DeadlineExceeded), want: true},
		{name: "serialization", err: fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"}), want: true},
		{name: "syntax", err: &pgconn.PgError{Code: "42601"}, want: false},
		{name: "other", err: errors.New("boom"), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := shouldRetryMigration(tc.err); got != tc.want {
				t.Fatalf("shouldRetryMigration(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestRunRejectsUnknownCommands(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := Run(ctx, nil); err == nil {
		t.Fatal("expected missing command to fail")
	}
	if err := Run(ctx, []string{"deploy"}); err == nil {
		t.Fatal("expected unknown command to fail")
	}
	if err := Run(ctx, []string{"migrate", "down"}); err == nil {
		t.Fatal("expected down migrations to be rejected")
	}
	if err := Run(ctx, []string{"seed"}); err == nil {
		t.Fatal("expected seed without a name to fail")
	}
}
