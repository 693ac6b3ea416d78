//go:build integration

package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	platformredis "cikyc/internal/platform/redis"
	"cikyc/pkg/platform/sentinel"
	"cikyc/pkg/testutil/containers"
)

type RedisSessionSuite struct {
	suite.Suite
	rc    *containers.RedisContainer
	store *Redis
	ctx   context.Context
}

func (s *RedisSessionSuite) SetupSuite() {
	s.rc = containers.NewRedisContainer(s.T())
	s.store = NewRedis(&platformredis.Client{Client: s.rc.Client})
	s.ctx = context.Background()
}

func (s *RedisSessionSuite) SetupTest() {
	s.Require().NoError(s.rc.FlushAll(s.ctx))
}

func TestRedisSessionSuite(t *testing.T) {
	suite.Run(t, new(RedisSessionSuite))
}

func (s *RedisSessionSuite) TestSaveAndGetRoundTrip() {
	session := Session{
		UserID: "3f1c2f2e-8f7a-4a59-9a3e-0d1f6a2b4c5d",
		Email:  "agent@example.com",
		Name:   "Agent Name",
		Role:   "1",
	}
	s.Require().NoError(s.store.Save(s.ctx, "token-1", session, time.Minute))

	got, err := s.store.Get(s.ctx, "token-1")
	s.Require().NoError(err)
	s.Equal(session, *got)
}

func (s *RedisSessionSuite) TestGetUnknownTokenID() {
	_, err := s.store.Get(s.ctx, "token-missing")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisSessionSuite) TestSaveHonorsTTL() {
	session := Session{UserID: "u1", Email: "a@example.com", Role: "1"}
	s.Require().NoError(s.store.Save(s.ctx, "token-ttl", session, 200*time.Millisecond))

	_, err := s.store.Get(s.ctx, "token-ttl")
	s.Require().NoError(err)

	time.Sleep(300 * time.Millisecond)

	_, err = s.store.Get(s.ctx, "token-ttl")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisSessionSuite) TestDeleteIsIdempotent() {
	session := Session{UserID: "u1", Email: "a@example.com", Role: "1"}
	s.Require().NoError(s.store.Save(s.ctx, "token-del", session, time.Minute))

	s.Require().NoError(s.store.Delete(s.ctx, "token-del"))
	_, err := s.store.Get(s.ctx, "token-del")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.Delete(s.ctx, "token-del"))
}
