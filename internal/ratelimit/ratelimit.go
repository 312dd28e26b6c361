// Package ratelimit provides a small keyed rate limiter injected into
// callers that talk to external providers. State lives in the limiter
// instance owned by the caller, not in package globals.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter grants or denies permits per string key.
type Limiter interface {
	// Allow reports whether one more action is permitted for key right now
	// and, if so, records it.
	Allow(key string) bool

	// Reset clears all recorded actions for key.
	Reset(key string)
}

// SlidingWindow is a Limiter that allows at most limit actions per key within
// a moving window.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

// NewSlidingWindow creates a sliding-window limiter.
// Parameters:
//   - limit: maximum actions per key per window; non-positive means unlimited.
//   - window: window length.
// Returns:
//   - *SlidingWindow: initialized limiter.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow implements Limiter.
func (l *SlidingWindow) Allow(key string) bool {
	if l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	recent := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.limit {
		l.hits[key] = recent
		return false
	}

	l.hits[key] = append(recent, now)
	return true
}

// Reset implements Limiter.
func (l *SlidingWindow) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, key)
}
