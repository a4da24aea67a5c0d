package bucket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	testLimit  = 10
	testWindow = time.Minute
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
	s.now = time.Date(2026, 1, 11, 12, 0, 0, 0, time.UTC)
	s.store.now = func() time.Time { return s.now }
}

func (s *InMemoryBucketStoreSuite) fill(key string) {
	for range testLimit {
		result, err := s.store.Allow(s.ctx, key, testLimit, testWindow)
		s.Require().NoError(err)
		s.Require().True(result.Allowed)
	}
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.Allow(s.ctx, "rl:read:first", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
		s.Equal(s.now.Add(testWindow), result.ResetAt)
	})

	s.Run("request over limit denied", func() {
		s.fill("rl:read:over")

		result, err := s.store.Allow(s.ctx, "rl:read:over", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.Equal(60, result.RetryAfter)
	})

	s.Run("window slides", func() {
		s.fill("rl:read:slide")

		s.now = s.now.Add(testWindow + time.Second)
		result, err := s.store.Allow(s.ctx, "rl:read:slide", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit-1, result.Remaining)
	})

	s.Run("keys are independent", func() {
		s.fill("rl:read:a")

		result, err := s.store.Allow(s.ctx, "rl:read:b", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})
}

func (s *InMemoryBucketStoreSuite) TestReset() {
	s.fill("rl:write:reset")
	s.Require().NoError(s.store.Reset(s.ctx, "rl:write:reset"))

	result, err := s.store.Allow(s.ctx, "rl:write:reset", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *InMemoryBucketStoreSuite) TestPrune() {
	_, err := s.store.Allow(s.ctx, "rl:write:old", testLimit, testWindow)
	s.Require().NoError(err)
	s.now = s.now.Add(2 * testWindow)
	_, err = s.store.Allow(s.ctx, "rl:write:new", testLimit, testWindow)
	s.Require().NoError(err)

	s.Equal(1, s.store.Prune())
	s.Len(s.store.buckets, 1)
}

func (s *InMemoryBucketStoreSuite) TestConcurrentAllow() {
	s.store.now = time.Now
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.store.Allow(s.ctx, "rl:write:concurrent", testLimit, testWindow)
			if err == nil && result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(testLimit, allowed)
}
