//go:build integration

package bucket_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ucphost/internal/ratelimit/store/bucket"
	"ucphost/pkg/testutil/containers"
)

type RedisBucketStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *bucket.RedisBucketStore
	ctx   context.Context
}

func TestRedisBucketStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBucketStoreSuite))
}

func (s *RedisBucketStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = bucket.NewRedisBucketStore(s.redis.Client)
	s.ctx = context.Background()
}

func (s *RedisBucketStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisBucketStoreSuite) TestAllowUpToLimit() {
	for i := range 3 {
		result, err := s.store.Allow(s.ctx, "rl:write:client", 3, time.Minute)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(3-i-1, result.Remaining)
	}

	result, err := s.store.Allow(s.ctx, "rl:write:client", 3, time.Minute)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.GreaterOrEqual(result.RetryAfter, 1)
	s.WithinDuration(time.Now().Add(time.Minute), result.ResetAt, 5*time.Second)
}

func (s *RedisBucketStoreSuite) TestWindowExpires() {
	_, err := s.store.Allow(s.ctx, "rl:read:short", 1, 200*time.Millisecond)
	s.Require().NoError(err)

	result, err := s.store.Allow(s.ctx, "rl:read:short", 1, 200*time.Millisecond)
	s.Require().NoError(err)
	s.False(result.Allowed)

	time.Sleep(300 * time.Millisecond)
	result, err = s.store.Allow(s.ctx, "rl:read:short", 1, 200*time.Millisecond)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RedisBucketStoreSuite) TestReset() {
	_, err := s.store.Allow(s.ctx, "rl:payment:reset", 1, time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Reset(s.ctx, "rl:payment:reset"))

	result, err := s.store.Allow(s.ctx, "rl:payment:reset", 1, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RedisBucketStoreSuite) TestKeysAreNamespaced() {
	_, err := s.store.Allow(s.ctx, "rl:read:namespaced", 5, time.Minute)
	s.Require().NoError(err)

	keys, err := s.redis.Keys(s.ctx, "*")
	s.Require().NoError(err)
	s.Equal([]string{"ucp:rl:read:namespaced"}, keys)
}
