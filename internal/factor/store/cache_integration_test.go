//go:build integration

package store_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"ghgledger/internal/factor/models"
	"ghgledger/internal/factor/store"
	"ghgledger/internal/platform/metrics"
	"ghgledger/internal/sentinel"
	"ghgledger/pkg/domain"
	txcontext "ghgledger/pkg/platform/tx"
	"ghgledger/pkg/testutil"
	"ghgledger/pkg/testutil/containers"
)

type CachedStoreSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backend *store.InMemoryStore
	metrics *metrics.Metrics
	cache   *store.CachedStore
}

func TestCachedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *CachedStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.Flush(context.Background()))
	s.backend = store.NewInMemory()
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	s.cache = store.NewCachedStore(s.backend, s.redis.Client, time.Minute, s.metrics,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *CachedStoreSuite) TestSecondResolveIsServedFromCache() {
	ctx := context.Background()
	f := testutil.NewFactor().Build()
	s.Require().NoError(s.cache.Create(ctx, f))
	on := domain.NewDate(2024, time.March, 1)

	first, err := s.cache.Resolve(ctx, "Diesel", "L", on)
	s.Require().NoError(err)
	second, err := s.cache.Resolve(ctx, "Diesel", "L", on)
	s.Require().NoError(err)

	s.Equal(first, second)
	s.InDelta(1, promtest.ToFloat64(s.metrics.FactorCacheMiss), 0)
	s.InDelta(1, promtest.ToFloat64(s.metrics.FactorCacheHits), 0)
}

func (s *CachedStoreSuite) TestDeleteInvalidatesKey() {
	ctx := context.Background()
	f := testutil.NewFactor().Build()
	s.Require().NoError(s.cache.Create(ctx, f))
	on := domain.NewDate(2024, time.March, 1)

	_, err := s.cache.Resolve(ctx, "Diesel", "L", on)
	s.Require().NoError(err)

	_, err = s.cache.Delete(ctx, f.ID)
	s.Require().NoError(err)

	_, err = s.cache.Resolve(ctx, "Diesel", "L", on)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *CachedStoreSuite) TestMissesAreNotCached() {
	ctx := context.Background()
	on := domain.NewDate(2024, time.March, 1)

	_, err := s.cache.Resolve(ctx, "Diesel", "L", on)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.cache.Create(ctx, testutil.NewFactor().Build()))
	_, err = s.cache.Resolve(ctx, "Diesel", "L", on)
	s.NoError(err)
}

// interleavedBackend runs afterResolve once, between the catalog read and the
// cache write of the Resolve that triggered it.
type interleavedBackend struct {
	*store.InMemoryStore
	afterResolve func()
}

func (b *interleavedBackend) Resolve(ctx context.Context, activity, unit string, on domain.Date) (*models.Factor, error) {
	f, err := b.InMemoryStore.Resolve(ctx, activity, unit, on)
	if hook := b.afterResolve; hook != nil {
		b.afterResolve = nil
		hook()
	}
	return f, err
}

func (s *CachedStoreSuite) TestDeleteDuringResolveLeavesNoStaleEntry() {
	ctx := context.Background()
	backend := &interleavedBackend{InMemoryStore: s.backend}
	cache := store.NewCachedStore(backend, s.redis.Client, time.Minute, s.metrics,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	f := testutil.NewFactor().Build()
	s.Require().NoError(cache.Create(ctx, f))
	on := domain.NewDate(2024, time.March, 1)

	backend.afterResolve = func() {
		_, err := cache.Delete(ctx, f.ID)
		s.Require().NoError(err)
	}
	stale, err := cache.Resolve(ctx, "Diesel", "L", on)
	s.Require().NoError(err)
	s.Equal(f.ID, stale.ID)

	_, err = cache.Resolve(ctx, "Diesel", "L", on)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *CachedStoreSuite) TestInvalidationWaitsForCommit() {
	ctx := context.Background()
	runner := txcontext.NewMemoryRunner()
	generation := `ghgledger:factor:generation:"Diesel":"L"`

	s.Run("rolled back unit leaves the generation alone", func() {
		errAbort := errors.New("abort")
		err := runner.RunInTx(ctx, func(txCtx context.Context) error {
			s.Require().NoError(s.cache.Create(txCtx, testutil.NewFactor().Build()))
			return errAbort
		})
		s.ErrorIs(err, errAbort)

		n, err := s.redis.Client.Exists(ctx, generation).Result()
		s.Require().NoError(err)
		s.Zero(n)
	})

	s.Run("committed unit bumps the generation after fn returns", func() {
		err := runner.RunInTx(ctx, func(txCtx context.Context) error {
			s.Require().NoError(s.cache.Create(txCtx, testutil.NewFactor().Build()))
			n, err := s.redis.Client.Exists(ctx, generation).Result()
			s.Require().NoError(err)
			s.Zero(n)
			return nil
		})
		s.Require().NoError(err)

		gen, err := s.redis.Client.Get(ctx, generation).Int64()
		s.Require().NoError(err)
		s.Equal(int64(1), gen)
	})
}
