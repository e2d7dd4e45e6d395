// Package ratelimit counts requests per key in fixed windows and decides
// whether a request fits under the limit.
//
// Counting is delegated to a Store whose Increment is atomic, and the
// decision uses the value returned by that same increment. With N
// concurrent requests on one key and a limit of T, exactly T are allowed.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"
)

type Strategy string

const (
	// Fixed counts requests in the current window only.
	Fixed Strategy = "fixed"
	// Sliding adds the previous window's count, weighted by how much of it
	// still overlaps the trailing window.
	Sliding Strategy = "sliding"
)

// Counts are the hits recorded for a key after an increment.
type Counts struct {
	Current  int64
	Previous int64
}

// Store atomically increments the counter of key for window number index
// and returns it together with the count of window index-1.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration, index int64) (Counts, error)
}

// Decision is the outcome of Take.
type Decision struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	ResetAfter time.Duration
}

type Limiter struct {
	name       string
	limit      int64
	window     time.Duration
	strategy   Strategy
	store      Store
	failClosed bool
	now        func() time.Time
}

type Option func(*Limiter)

// WithStrategy selects fixed (default) or sliding counting.
func WithStrategy(s Strategy) Option {
	return func(l *Limiter) { l.strategy = s }
}

// WithFailClosed makes the caller reject requests when the store fails.
func WithFailClosed(failClosed bool) Option {
	return func(l *Limiter) { l.failClosed = failClosed }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New returns a limiter allowing limit requests per window per key.
func New(name string, limit int64, window time.Duration, store Store, opts ...Option) *Limiter {
	l := &Limiter{
		name:     name,
		limit:    limit,
		window:   window,
		strategy: Fixed,
		store:    store,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) Name() string          { return l.name }
func (l *Limiter) Limit() int64          { return l.limit }
func (l *Limiter) Window() time.Duration { return l.window }
func (l *Limiter) FailClosed() bool      { return l.failClosed }

// Take records one hit for key. A store error is returned with a Decision
// that carries only the limit; the caller applies the fail-open policy.
func (l *Limiter) Take(ctx context.Context, key string) (Decision, error) {
	now := l.now()
	index := now.UnixNano() / l.window.Nanoseconds()
	windowStart := time.Unix(0, index*l.window.Nanoseconds())
	resetAfter := windowStart.Add(l.window).Sub(now)

	counts, err := l.store.Increment(ctx, key, l.window, index)
	if err != nil {
		return Decision{Limit: l.limit, Remaining: l.limit, ResetAfter: resetAfter},
			fmt.Errorf("rate limiter %s: %w", l.name, err)
	}

	used := counts.Current
	if l.strategy == Sliding && counts.Previous > 0 {
		elapsed := float64(now.Sub(windowStart)) / float64(l.window)
		used += int64(math.Floor(float64(counts.Previous) * (1 - elapsed)))
	}

	return Decision{
		Allowed:    used <= l.limit,
		Limit:      l.limit,
		Remaining:  max(l.limit-used, 0),
		ResetAfter: resetAfter,
	}, nil
}
