package cache

import (
	"context"
	"sync"
	"time"
)

// entry stores a cached value together with its write time.
type entry[V any] struct {
	value     V
	timestamp time.Time
}

// Memory is a process-wide TTL cache. Entries are never evicted; an entry
// older than TTL reads as a miss and is overwritten by the next Set.
type Memory[V any] struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	items map[string]entry[V]
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewMemory[V any](ttl time.Duration, opts ...Option) *Memory[V] {
	o := buildOptions(opts)
	return &Memory[V]{ttl: ttl, now: o.now, items: map[string]entry[V]{}}
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, bool, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok || !fresh(m.now(), e.timestamp, m.ttl) {
		var zero V
		return zero, false, nil
	}
	return e.value, true, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, v V) error {
	m.mu.Lock()
	m.items[key] = entry[V]{value: v, timestamp: m.now()}
	m.mu.Unlock()
	return nil
}

// Len reports stored entries, stale ones included.
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func fresh(now, written time.Time, ttl time.Duration) bool {
	return now.Sub(written) < ttl
}
