package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

type window struct {
	start  time.Time
	length time.Duration
	count  int
}

// MemoryLimiter keeps counters in process memory. It is suitable for a single
// instance deployment.
type MemoryLimiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryLimiter creates an empty in-process limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow registers a call for key and reports whether it fits the policy.
func (l *MemoryLimiter) Allow(_ context.Context, key string, policy Policy) (Decision, error) {
	if policy.Limit <= 0 || policy.Window <= 0 {
		return Decision{}, errors.New("invalid rate limit policy")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now, policy.Window)

	w, ok := l.windows[key]
	if !ok || !now.Before(w.start.Add(policy.Window)) {
		w = &window{start: now, length: policy.Window}
		l.windows[key] = w
	}
	w.count++

	return decide(w.count, policy, w.start.Add(policy.Window).Sub(now)), nil
}

// sweep drops ended windows, at most once per interval.
func (l *MemoryLimiter) sweep(now time.Time, interval time.Duration) {
	if now.Sub(l.lastSweep) < interval {
		return
	}
	l.lastSweep = now
	for k, w := range l.windows {
		if !now.Before(w.start.Add(w.length)) {
			delete(l.windows, k)
		}
	}
}
