package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	testLimit  = 3
	testWindow = time.Minute
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.store = NewInMemoryStore()
	s.store.now = func() time.Time { return s.now }
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) TestAllowsUpToLimit() {
	for i := range testLimit {
		r, err := s.store.Allow(s.ctx, "k", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(r.Allowed)
		s.Equal(testLimit-i-1, r.Remaining)
	}

	r, err := s.store.Allow(s.ctx, "k", testLimit, testWindow)
	s.Require().NoError(err)
	s.False(r.Allowed)
	s.Zero(r.Remaining)
	s.Equal(s.now.Add(testWindow), r.ResetAt)
}

func (s *InMemoryStoreSuite) TestWindowSlides() {
	for range testLimit {
		_, err := s.store.Allow(s.ctx, "k", testLimit, testWindow)
		s.Require().NoError(err)
	}

	s.now = s.now.Add(testWindow)
	r, err := s.store.Allow(s.ctx, "k", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(r.Allowed, "requests exactly one window old have expired")
}

func (s *InMemoryStoreSuite) TestKeysAreIndependent() {
	for range testLimit {
		_, err := s.store.Allow(s.ctx, "a", testLimit, testWindow)
		s.Require().NoError(err)
	}
	r, err := s.store.Allow(s.ctx, "b", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(r.Allowed)
}

func (s *InMemoryStoreSuite) TestConcurrentCallersNeverExceedLimit() {
	const goroutines = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.store.Allow(s.ctx, "shared", testLimit, testWindow)
			if err == nil && r.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(testLimit, allowed)
}

func TestRetryAfterRoundsUp(t *testing.T) {
	now := time.Unix(1000, 0)
	r := Result{ResetAt: now.Add(1500 * time.Millisecond)}
	if got := r.RetryAfter(now); got != 2 {
		t.Fatalf("RetryAfter = %d, want 2", got)
	}
	if got := r.RetryAfter(now.Add(time.Hour)); got != 0 {
		t.Fatalf("RetryAfter after reset = %d, want 0", got)
	}
}
