// Package ratelimit implements fixed-window request counters keyed by an
// arbitrary string, typically client IP plus route.
package ratelimit

import (
	"context"
	"time"
)

// Policy is a fixed-window limit: at most Limit calls per Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts calls per key. Every call is counted, including rejected ones.
type Limiter interface {
	Allow(ctx context.Context, key string, policy Policy) (Decision, error)
}

func decide(count int, policy Policy, resetIn time.Duration) Decision {
	remaining := policy.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	if resetIn <= 0 {
		resetIn = time.Millisecond
	}
	return Decision{
		Allowed:    count <= policy.Limit,
		Remaining:  remaining,
		RetryAfter: resetIn,
	}
}
