package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	index    int64
	current  int64
	previous int64
	expires  time.Time
}

// MemoryStore keeps counters in process. It is exact for a single
// instance only; run the redis store behind a load balancer.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	cleanupInterval time.Duration
	now             func() time.Time
}

// WithCleanupInterval sets how often expired counters are evicted.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.cleanupInterval = d }
}

// WithMemoryClock overrides time.Now for expiry.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(c *memoryConfig) { c.now = now }
}

// NewMemoryStore starts the eviction loop, which stops when ctx is done.
func NewMemoryStore(ctx context.Context, opts ...MemoryOption) *MemoryStore {
	cfg := memoryConfig{cleanupInterval: time.Minute, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     cfg.now,
	}

	go s.cleanupLoop(ctx, cfg.cleanupInterval)
	return s
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration, index int64) (Counts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	switch {
	case !ok:
		e = &memoryEntry{index: index}
		s.entries[key] = e
	case e.index == index-1:
		e.previous, e.current, e.index = e.current, 0, index
	case e.index < index-1:
		e.previous, e.current, e.index = 0, 0, index
	}
	// e.index > index only under clock skew; count into the newer window.

	e.current++
	e.expires = s.now().Add(2 * window)

	return Counts{Current: e.current, Previous: e.previous}, nil
}

// Len reports how many keys are tracked.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) cleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *MemoryStore) evictExpired() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, key)
		}
	}
}
