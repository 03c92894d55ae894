package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aora/backend/internal/auth"
	"github.com/aora/backend/internal/db"
)

const (
	upsertSessionSQL = `INSERT INTO sessions (token, id, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token) DO UPDATE SET expires_at = EXCLUDED.expires_at`
	selectSessionSQL = `SELECT token, id, user_id, expires_at, created_at FROM sessions WHERE token = $1`
	deleteSessionSQL = `DELETE FROM sessions WHERE token = $1`
)

// PostgresSessionStore implements auth.SessionStore on the sessions table.
// Rows are removed when a session is revoked or found expired.
type PostgresSessionStore struct {
	pool db.Pool
}

// NewPostgresSessionStore constructs a session store backed by PostgreSQL.
func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Save records a session, refreshing the expiry if the token already exists.
func (s *PostgresSessionStore) Save(ctx context.Context, session auth.Session) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, upsertSessionSQL,
		session.Token, session.ID, session.UserID, session.ExpiresAt.UTC(), session.CreatedAt.UTC()); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("save session: %w", ErrConflict)
		}
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Find resolves a token to its session. Unknown tokens yield auth.ErrSessionNotFound.
func (s *PostgresSessionStore) Find(ctx context.Context, token string) (auth.Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return auth.Session{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var session auth.Session
	err = conn.QueryRow(ctx, selectSessionSQL, token).
		Scan(&session.Token, &session.ID, &session.UserID, &session.ExpiresAt, &session.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return auth.Session{}, auth.ErrSessionNotFound
	case err != nil:
		return auth.Session{}, fmt.Errorf("find session: %w", err)
	}

	session.ExpiresAt = session.ExpiresAt.UTC()
	session.CreatedAt = session.CreatedAt.UTC()
	return session, nil
}

// Delete revokes token. Deleting an unknown token yields auth.ErrSessionNotFound.
func (s *PostgresSessionStore) Delete(ctx context.Context, token string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, deleteSessionSQL, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

var _ auth.SessionStore = (*PostgresSessionStore)(nil)
