//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/thegreenwebfoundation/admin-portal-sub000/pkg/testutil/containers"
)

type RedisBadgeSuite struct {
	suite.Suite
	client *redis.Client
	badges *RedisBadgeCache
	ctx    context.Context
}

func (s *RedisBadgeSuite) SetupSuite() {
	container := containers.GetManager().GetRedis(s.T())
	s.client = container.Client
	s.badges = NewRedisBadgeCache(s.client)
	s.ctx = context.Background()
}

func (s *RedisBadgeSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(s.ctx).Err())
}

func TestRedisBadgeSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBadgeSuite))
}

func (s *RedisBadgeSuite) TestClearRemovesBadgeKeys() {
	for _, domain := range []string{"a.example.com", "b.example.com"} {
		s.Require().NoError(s.client.Set(s.ctx, "badge:"+domain, "<svg/>", time.Hour).Err())
	}
	s.Require().NoError(s.client.Set(s.ctx, "session:unrelated", "x", time.Hour).Err())

	s.Require().NoError(s.badges.Clear(s.ctx, "a.example.com", "b.example.com"))

	for _, domain := range []string{"a.example.com", "b.example.com"} {
		exists, err := s.client.Exists(s.ctx, "badge:"+domain).Result()
		s.Require().NoError(err)
		s.Zero(exists, domain)
	}
	exists, err := s.client.Exists(s.ctx, "session:unrelated").Result()
	s.Require().NoError(err)
	s.EqualValues(1, exists, "unrelated keys untouched")
}

func (s *RedisBadgeSuite) TestClearWithNoDomainsIsNoop() {
	s.NoError(s.badges.Clear(s.ctx))
}

func (s *RedisBadgeSuite) TestClearMissingKeys() {
	s.NoError(s.badges.Clear(s.ctx, "never-cached.example.com"))
}
