// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit paces outbound API calls. A Limiter spaces calls by a
// minimum interval measured from the completion of the previous call, not
// from its start, so a slow response never allows the next request to fire
// early. Callers sharing a Limiter are strictly serialized.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter enforces a minimum interval between consecutive calls.
type Limiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	last        time.Time
}

// NewLimiter returns a Limiter spacing calls by at least minInterval.
// A zero or negative interval disables waiting but keeps serialization.
func NewLimiter(minInterval time.Duration) *Limiter {
	return &Limiter{minInterval: minInterval}
}

// Execute waits until minInterval has elapsed since the previous call
// completed, runs fn, and records the completion time. The completion time
// is recorded whether or not fn returns an error, so failed calls still
// count against the pace. Concurrent callers run one at a time.
func (l *Limiter) Execute(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.last.IsZero() && l.minInterval > 0 {
		if wait := l.minInterval - time.Since(l.last); wait > 0 {
			time.Sleep(wait)
		}
	}

	defer func() { l.last = time.Now() }()
	return fn()
}

// Reset clears the recorded completion time; the next Execute runs
// immediately.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = time.Time{}
}

// Registry hands out named shared Limiters. Clients that talk to the same
// API ask for the same name and therefore pace against a single quota.
// The registry is plain state passed to whoever needs it; there is no
// process-global instance.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]*Limiter)}
}

// Get returns the Limiter registered under name, creating it with
// minInterval on first use. Later calls for the same name return the
// original limiter and ignore the interval argument.
func (r *Registry) Get(name string, minInterval time.Duration) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[name]
	if !ok {
		l = NewLimiter(minInterval)
		r.limiters[name] = l
	}
	return l
}

// ResetAll clears timing state on every registered limiter.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.limiters {
		l.Reset()
	}
}
