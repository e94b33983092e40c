//go:build integration

package counter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"enroll/internal/signup/models"
	"enroll/internal/signup/store/counter"
	"enroll/pkg/sentinel"
	"enroll/pkg/testutil/containers"
)

type RedisCounterSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *counter.RedisStore
}

func TestRedisCounterSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCounterSuite))
}

func (s *RedisCounterSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())

	store, err := counter.NewRedisStore(s.redis.Client)
	s.Require().NoError(err)
	s.store = store
}

func (s *RedisCounterSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCounterSuite) TestLoadEmptyReturnsNotFound() {
	_, err := s.store.Load(context.Background())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisCounterSuite) TestSaveThenLoadRoundTrips() {
	ctx := context.Background()
	want := models.DailyCount{Date: "2025-06-01", Count: 4}
	s.Require().NoError(s.store.Save(ctx, want))

	got, err := s.store.Load(ctx)
	s.Require().NoError(err)
	s.Equal(want, got)
}

func (s *RedisCounterSuite) TestSaveOverwritesPreviousState() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, models.DailyCount{Date: "2025-06-01", Count: 4}))
	s.Require().NoError(s.store.Save(ctx, models.DailyCount{Date: "2025-06-02", Count: 0}))

	got, err := s.store.Load(ctx)
	s.Require().NoError(err)
	s.Equal("2025-06-02", got.Date)
	s.Zero(got.Count)
}
