// Package ratelimit implements fixed-window request limiting.
package ratelimit

import (
	"context"
	"time"
)

// Policy is a named limit: at most Max requests per Window for one key.
type Policy struct {
	Name   string
	Window time.Duration
	Max    int
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is the time left in the current window.
	RetryAfter time.Duration
}

// Limiter counts hits per key within the policy window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Policy() Policy
}

func decide(p Policy, count int64, ttl time.Duration) Decision {
	remaining := p.Max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	if ttl <= 0 {
		ttl = p.Window
	}
	return Decision{
		Allowed:    count <= int64(p.Max),
		Limit:      p.Max,
		Remaining:  remaining,
		RetryAfter: ttl,
	}
}
