package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const redisSessionPrefix = "aora:session:"

// RedisSessionStore keeps sessions in Redis, expiring each key with its session.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore builds a Redis-backed session store.
func NewRedisSessionStore(addr, password string) *RedisSessionStore {
	return &RedisSessionStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

// Ping verifies the Redis server is reachable.
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying connections.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

// Save writes the session with a TTL matching its expiry.
func (s *RedisSessionStore) Save(ctx context.Context, session Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, redisSessionPrefix+session.Token, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Find resolves token to its session.
func (s *RedisSessionStore) Find(ctx context.Context, token string) (Session, error) {
	payload, err := s.client.Get(ctx, redisSessionPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("redis get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

// Delete removes a token mapping.
func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	removed, err := s.client.Del(ctx, redisSessionPrefix+token).Result()
	if err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	if removed == 0 {
		return ErrSessionNotFound
	}
	return nil
}
