// Package cache provides the in-process caches used by the catalog layer:
// a generic keyed cache with TTL expiry and a single-slot snapshot cache.
// All state is process-local; under horizontal scaling each instance holds
// its own independent copy.
package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value   T
	created time.Time
}

// TTL is a keyed cache whose entries are visible for a fixed duration
// after being set. Expired entries are swept on every read. There is no
// capacity bound; the expected key space is one key per distinct
// (query, filters, page, pageSize) tuple.
type TTL[T any] struct {
	mu      sync.Mutex
	entries map[string]entry[T]
	ttl     time.Duration
	now     func() time.Time
}

// NewTTL creates a keyed cache with the given entry lifetime.
func NewTTL[T any](ttl time.Duration, opts ...Option) *TTL[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &TTL[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
		now:     o.now,
	}
}

// Get returns the value stored under key if it is still fresh.
func (c *TTL[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweep()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.created) >= c.ttl {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, restarting its lifetime.
func (c *TTL[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[T]{value: value, created: c.now()}
}

// Delete drops key immediately.
func (c *TTL[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len reports the number of stored entries, expired ones included.
func (c *TTL[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// sweep drops every expired entry. Callers hold c.mu.
func (c *TTL[T]) sweep() {
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.created) >= c.ttl {
			delete(c.entries, k)
		}
	}
}

// Option configures a cache at construction time.
type Option func(*options)

type options struct {
	now func() time.Time
}

func defaultOptions() options {
	return options{now: time.Now}
}

// WithClock replaces the cache's time source. Tests use this to step a
// mock clock past the TTL.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}
