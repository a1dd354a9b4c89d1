package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"ghgledger/internal/factor/models"
	"ghgledger/pkg/domain"
	txcontext "ghgledger/pkg/platform/tx"
)

const (
	redisResolveKeyPrefix    = "ghgledger:factor:resolve:"
	redisGenerationKeyPrefix = "ghgledger:factor:generation:"
)

// Backend is the catalog surface the cache decorates.
type Backend interface {
	Create(ctx context.Context, f *models.Factor) error
	FindByID(ctx context.Context, id domain.FactorID) (*models.Factor, error)
	List(ctx context.Context) ([]*models.Factor, error)
	Delete(ctx context.Context, id domain.FactorID) (*models.Factor, error)
	Resolve(ctx context.Context, activity, unit string, on domain.Date) (*models.Factor, error)
	ListOverlapping(ctx context.Context, activity, unit string, from, to domain.Date) ([]*models.Factor, error)
}

// CacheMetrics is satisfied by *metrics.Metrics.
type CacheMetrics interface {
	IncrementFactorCacheHit()
	IncrementFactorCacheMiss()
}

// CachedStore is a read-through Redis cache over Resolve. Results for one
// (activity, unit) live in a hash keyed by date, and the hash name carries a
// generation counter for that pair. Creating or deleting a factor bumps the
// generation once the change has committed, so a Resolve that read the
// catalog before the change can only write into a generation nobody reads
// again. Misses are not cached. Redis failures degrade to the backend and are
// logged, never returned.
type CachedStore struct {
	Backend
	client  *redis.Client
	ttl     time.Duration
	metrics CacheMetrics
	logger  *slog.Logger
}

// NewCachedStore wraps backend. metrics may be nil.
func NewCachedStore(backend Backend, client *redis.Client, ttl time.Duration, metrics CacheMetrics, logger *slog.Logger) *CachedStore {
	return &CachedStore{
		Backend: backend,
		client:  client,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *CachedStore) Resolve(ctx context.Context, activity, unit string, on domain.Date) (*models.Factor, error) {
	gen, err := c.client.Get(ctx, generationKey(activity, unit)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "factor cache generation read failed", "error", err)
		c.recordMiss()
		return c.Backend.Resolve(ctx, activity, unit, on)
	}
	key := resolveKey(activity, unit, gen)
	field := on.String()

	data, err := c.client.HGet(ctx, key, field).Bytes()
	switch {
	case err == nil:
		var f models.Factor
		if decodeErr := json.Unmarshal(data, &f); decodeErr == nil {
			c.recordHit()
			return &f, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable factor cache entry", "key", key, "field", field)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "factor cache read failed", "error", err)
	}
	c.recordMiss()

	f, err := c.Backend.Resolve(ctx, activity, unit, on)
	if err != nil {
		return nil, err
	}
	if err := c.save(ctx, key, field, f); err != nil {
		c.logger.WarnContext(ctx, "factor cache write failed", "error", err)
	}
	return f, nil
}

func (c *CachedStore) Create(ctx context.Context, f *models.Factor) error {
	if err := c.Backend.Create(ctx, f); err != nil {
		return err
	}
	c.invalidateAfterCommit(ctx, f.Activity, f.Unit)
	return nil
}

func (c *CachedStore) Delete(ctx context.Context, id domain.FactorID) (*models.Factor, error) {
	f, err := c.Backend.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	c.invalidateAfterCommit(ctx, f.Activity, f.Unit)
	return f, nil
}

func (c *CachedStore) save(ctx context.Context, key, field string, f *models.Factor) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode factor cache: %w", err)
	}
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, field, payload)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save factor cache: %w", err)
	}
	return nil
}

func (c *CachedStore) invalidateAfterCommit(ctx context.Context, activity, unit string) {
	txcontext.AfterCommit(ctx, func(ctx context.Context) {
		c.invalidate(ctx, activity, unit)
	})
}

// invalidate retires the current generation. Hashes of older generations
// expire with their TTL.
func (c *CachedStore) invalidate(ctx context.Context, activity, unit string) {
	if err := c.client.Incr(ctx, generationKey(activity, unit)).Err(); err != nil {
		c.logger.ErrorContext(ctx, "factor cache invalidation failed",
			"activity", activity,
			"unit", unit,
			"error", err,
		)
	}
}

func (c *CachedStore) recordHit() {
	if c.metrics != nil {
		c.metrics.IncrementFactorCacheHit()
	}
}

func (c *CachedStore) recordMiss() {
	if c.metrics != nil {
		c.metrics.IncrementFactorCacheMiss()
	}
}

func resolveKey(activity, unit string, generation int64) string {
	return fmt.Sprintf("%s%q:%q:%d", redisResolveKeyPrefix, activity, unit, generation)
}

func generationKey(activity, unit string) string {
	return fmt.Sprintf("%s%q:%q", redisGenerationKeyPrefix, activity, unit)
}
