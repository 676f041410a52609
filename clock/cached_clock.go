package clock

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Luismorlan/feedsim/model"
	. "github.com/Luismorlan/feedsim/utils/log"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const (
	currentRoundKey = "feedsim__current_round"
	defaultTTL      = 30 * time.Second
)

// CachedClock keeps the current round in redis in front of another Service.
// Advance writes through, so agents served by several API replicas agree on
// the round as soon as the orchestrator moves the clock. Redis failures are
// logged and the inner clock answers instead.
type CachedClock struct {
	inner Service
	redis *redis.Client
	ttl   time.Duration
}

var _ Service = (*CachedClock)(nil)

// NewCachedClock wraps inner. A non-positive ttl uses the default.
func NewCachedClock(inner Service, client *redis.Client, ttl time.Duration) *CachedClock {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &CachedClock{inner: inner, redis: client, ttl: ttl}
}

func (c *CachedClock) CurrentRound(ctx context.Context) (model.Round, error) {
	var round model.Round
	val, err := c.redis.Get(ctx, currentRoundKey).Result()
	if err == nil {
		if err = json.Unmarshal([]byte(val), &round); err == nil {
			return round, nil
		}
	}
	if err != redis.Nil {
		Log.WithError(err).Warn("fail to read current round from redis")
	}

	round, err = c.inner.CurrentRound(ctx)
	if err != nil {
		return round, err
	}
	c.store(ctx, round)
	return round, nil
}

// Advance moves the inner clock and caches the latest round, which is not
// the returned one when (day, hour) was visited before. If the latest round
// can't be read the cached value is dropped, so readers fall back to the
// inner clock.
func (c *CachedClock) Advance(ctx context.Context, day, hour int) (model.Round, error) {
	round, err := c.inner.Advance(ctx, day, hour)
	if err != nil {
		return round, err
	}
	latest, err := c.inner.CurrentRound(ctx)
	if err != nil {
		if err := c.Invalidate(ctx); err != nil {
			Log.WithError(err).Warn("cached round may be stale")
		}
		return round, nil
	}
	c.store(ctx, latest)
	return round, nil
}

// Invalidate drops the cached round.
func (c *CachedClock) Invalidate(ctx context.Context) error {
	return errors.Wrap(c.redis.Del(ctx, currentRoundKey).Err(), "fail to invalidate cached round")
}

func (c *CachedClock) store(ctx context.Context, round model.Round) {
	bytes, err := json.Marshal(round)
	if err != nil {
		Log.WithError(err).Error("fail to encode round")
		return
	}
	if err := c.redis.Set(ctx, currentRoundKey, bytes, c.ttl).Err(); err != nil {
		Log.WithError(err).Warn("fail to cache current round")
	}
}
