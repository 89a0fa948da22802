// Package ratelimit enforces fixed-window request limits keyed by client
// identity and route.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAfter is the time until the current window ends.
	ResetAfter time.Duration
}

// Limiter counts a hit against key and reports whether it fits in limit hits
// per window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

// Rule is a limit applied to one group of routes.
type Rule struct {
	Limit  int
	Window time.Duration
}

func decide(count int64, limit int, resetAfter time.Duration) Decision {
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    count <= int64(limit),
		Limit:      limit,
		Remaining:  remaining,
		ResetAfter: resetAfter,
	}
}
