package auth

import (
	"context"
	"sync"
)

// InMemorySessionStore keeps sessions in process memory. Sessions are lost
// on restart, so it only suits tests and local development.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewInMemorySessionStore returns an empty store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]Session)}
}

func (s *InMemorySessionStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
	return nil
}

func (s *InMemorySessionStore) Find(_ context.Context, token string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[token]; ok {
		return session, nil
	}
	return Session{}, ErrSessionNotFound
}

func (s *InMemorySessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[token]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, token)
	return nil
}

// Len reports how many sessions are stored.
func (s *InMemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

var _ SessionStore = (*InMemorySessionStore)(nil)
