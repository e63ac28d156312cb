// Package ratelimit throttles authenticated mutations per caller with a
// sliding window. Stores are in memory for a single node or Redis when
// several nodes share the limit.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the whole-second wait until the window frees a slot.
func (r Result) RetryAfter(now time.Time) int {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// Store counts requests per key inside a window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}
