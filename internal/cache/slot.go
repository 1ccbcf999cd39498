package cache

import (
	"sync"
	"time"
)

// Slot is a single-value snapshot cache. The catalog layer keeps two of
// these in front of its keyed cache for the zero-query, zero-filter,
// page-1 case. Invalidation is by TTL expiry only; writes to the backing
// store do not touch it.
type Slot[T any] struct {
	mu      sync.Mutex
	value   T
	created time.Time
	filled  bool
	ttl     time.Duration
	now     func() time.Time
}

// NewSlot creates an empty snapshot slot with the given lifetime.
func NewSlot[T any](ttl time.Duration, opts ...Option) *Slot[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Slot[T]{ttl: ttl, now: o.now}
}

// Get returns the snapshot if one is present and still fresh.
func (s *Slot[T]) Get() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.filled || s.now().Sub(s.created) >= s.ttl {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Set replaces the snapshot, restarting its lifetime.
func (s *Slot[T]) Set(value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	s.created = s.now()
	s.filled = true
}

// Clear empties the slot.
func (s *Slot[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.value = zero
	s.filled = false
}
