package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps a sliding window of timestamps per key.
type InMemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

func (s *InMemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stamps := trim(s.windows[key], now.Add(-window))

	if len(stamps) >= limit {
		s.windows[key] = stamps
		reset := now.Add(window)
		if len(stamps) > 0 {
			reset = stamps[0].Add(window)
		}
		return Result{Allowed: false, Limit: limit, ResetAt: reset}, nil
	}

	stamps = append(stamps, now)
	s.windows[key] = stamps
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(stamps),
		ResetAt:   stamps[0].Add(window),
	}, nil
}

// trim drops timestamps at or before cutoff. Timestamps are appended in
// order so the expired ones are a prefix.
func trim(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	return stamps[i:]
}
