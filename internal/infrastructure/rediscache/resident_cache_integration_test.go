//go:build integration

package rediscache_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/oksasatya/resident-registration/internal/infrastructure/rediscache"
	"github.com/oksasatya/resident-registration/internal/testutil/containers"
)

type countingLookup struct {
	registered map[string]bool
	calls      atomic.Int32
}

func (c *countingLookup) Exists(_ context.Context, email string) (bool, error) {
	c.calls.Add(1)
	return c.registered[email], nil
}

type ResidentCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestResidentCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ResidentCacheSuite))
}

func (s *ResidentCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *ResidentCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *ResidentCacheSuite) TestPositiveAnswersAreCached() {
	ctx := context.Background()
	next := &countingLookup{registered: map[string]bool{"a@x.com": true}}
	lookup := rediscache.NewResidentLookup(next, s.redis.Client, time.Hour, nil)

	for i := 0; i < 3; i++ {
		ok, err := lookup.Exists(ctx, "a@x.com")
		s.Require().NoError(err)
		s.True(ok)
	}
	s.Equal(int32(1), next.calls.Load())

	ttl, err := s.redis.Client.TTL(ctx, "resident:registered:a@x.com").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *ResidentCacheSuite) TestNegativeAnswersAlwaysHitDatabase() {
	ctx := context.Background()
	next := &countingLookup{registered: map[string]bool{}}
	lookup := rediscache.NewResidentLookup(next, s.redis.Client, time.Hour, nil)

	for i := 0; i < 2; i++ {
		ok, err := lookup.Exists(ctx, "b@x.com")
		s.Require().NoError(err)
		s.False(ok)
	}
	s.Equal(int32(2), next.calls.Load())

	lookup.MarkRegistered(ctx, "b@x.com")
	ok, err := lookup.Exists(ctx, "b@x.com")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(int32(2), next.calls.Load())
}
