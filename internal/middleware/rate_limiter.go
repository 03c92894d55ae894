package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aora/backend/internal/config"
)

// idleTTL is how long an unused key keeps its token bucket.
const idleTTL = 5 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key, usually a scope plus client IP.
type KeyedLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewIPRateLimiter allows up to requests events per window for each key, with
// an extra burst. Buckets for keys idle longer than ttl are dropped.
func NewIPRateLimiter(requests int, window time.Duration, burst int, ttl time.Duration) *KeyedLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = idleTTL
	}

	return &KeyedLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
	}
}

// NewAuthRateLimiter builds the limiter guarding sign-up and login.
func NewAuthRateLimiter(cfg config.RateLimitConfig) *KeyedLimiter {
	return NewIPRateLimiter(cfg.Requests, cfg.Window, cfg.Burst, idleTTL)
}

// Allow reports whether key may act now, consuming a token if so.
func (l *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	l.mu.Lock()
	now := l.now()
	b := l.bucketLocked(key, now)
	l.sweepLocked(now)
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

func (l *KeyedLimiter) bucketLocked(key string, now time.Time) *bucket {
	if b, ok := l.buckets[key]; ok {
		b.lastSeen = now
		return b
	}
	b := &bucket{limiter: rate.NewLimiter(l.limit, l.burst), lastSeen: now}
	l.buckets[key] = b
	return b
}

// sweepLocked drops idle buckets at most once per ttl.
func (l *KeyedLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.ttl {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.ttl {
			delete(l.buckets, key)
		}
	}
}

// Len reports how many keys currently hold a bucket.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
