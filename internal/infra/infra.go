// Package infra provides small shared infrastructure pieces: a TTL cache
// for serving repeated ranking requests without refetching, and a token
// bucket rate limiter guarding outbound requests to upstream relays.
package infra

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// Cache is a thread-safe in-memory cache with a default TTL. It has an
// explicit owner and lifecycle; nothing in this codebase holds cache
// state in package-level variables.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

// NewCache creates a cache with the given default TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{entries: make(map[string]cacheEntry), ttl: ttl}
}

// Get returns the cached value for key, or false if absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with a custom TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Invalidate drops a single key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Flush drops every entry.
func (c *Cache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// RateLimiter is a token bucket allowing maxTokens requests per refill
// window.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	window     time.Duration
	lastRefill time.Time
}

// NewRateLimiter creates a limiter allowing maxTokens requests per window.
func NewRateLimiter(maxTokens int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		window:     window,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		if rl.take() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (rl *RateLimiter) take() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(rl.lastRefill); elapsed >= rl.window {
		rl.tokens = rl.maxTokens
		rl.lastRefill = now
	}
	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}
