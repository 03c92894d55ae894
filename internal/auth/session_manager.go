package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aora/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the provided token does not map to an active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates the session existed but its lifetime has elapsed.
	ErrSessionExpired = errors.New("session expired")
)

// SessionStore persists issued sessions so they can survive process restarts.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
}

// Session is a bearer token issued to an account.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Model converts the stored session to the shape returned by sign-in.
func (s Session) Model() models.Session {
	return models.Session{
		ID:        s.ID,
		UserID:    s.UserID,
		Secret:    s.Token,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
	}
}

// Manager issues and resolves session tokens backed by a persistent store.
type Manager struct {
	ttl   time.Duration
	store SessionStore
	now   func() time.Time
}

// NewManager constructs a Manager whose sessions live for ttl.
func NewManager(ttl time.Duration, store SessionStore) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	return &Manager{
		ttl:   ttl,
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a new session for the provided account identifier.
func (m *Manager) Issue(ctx context.Context, userID string) (models.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return models.Session{}, errors.New("user id must be provided")
	}

	token, err := randomToken()
	if err != nil {
		return models.Session{}, err
	}

	now := m.now()
	session := Session{
		ID:        strings.ReplaceAll(uuid.NewString(), "-", ""),
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	if err := m.store.Save(ctx, session); err != nil {
		return models.Session{}, err
	}

	return session.Model(), nil
}

// Resolve loads the live session for token. Expired sessions are removed.
func (m *Manager) Resolve(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrSessionNotFound
	}

	session, err := m.store.Find(ctx, token)
	if err != nil {
		return Session{}, err
	}

	if m.now().After(session.ExpiresAt) {
		_ = m.store.Delete(ctx, token)
		return Session{}, ErrSessionExpired
	}

	return session, nil
}

// Revoke removes the session identified by token.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return ErrSessionNotFound
	}
	return m.store.Delete(ctx, token)
}

func randomToken() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
