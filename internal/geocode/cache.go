package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"listingmap_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "geocode:district:"

// Cached stores successful lookups of next in Redis. Failures are never
// cached so a later toggle retries them.
type Cached struct {
	next Resolver
	rdb  redis.Cmdable
	ttl  time.Duration
	log  *logger.Logger
}

func NewCached(next Resolver, rdb redis.Cmdable, ttl time.Duration, log *logger.Logger) *Cached {
	return &Cached{next: next, rdb: rdb, ttl: ttl, log: log}
}

// CacheKey is the Redis key of a coordinate, rounded to about 10cm.
func CacheKey(lat, lng float64) string {
	return fmt.Sprintf("%s%.6f,%.6f", cacheKeyPrefix, lat, lng)
}

func (c *Cached) Resolve(ctx context.Context, lat, lng float64) (District, error) {
	key := CacheKey(lat, lng)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var d District
		if jsonErr := json.Unmarshal(raw, &d); jsonErr == nil {
			return d, nil
		}
	case !errors.Is(err, redis.Nil):
		if ctx.Err() != nil {
			return District{}, ctx.Err()
		}
		c.log.Warn("district cache read failed", "key", key, "error", err)
	}

	d, err := c.next.Resolve(ctx, lat, lng)
	if err != nil {
		return District{}, err
	}

	payload, err := json.Marshal(d)
	if err != nil {
		return d, nil
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn("district cache write failed", "key", key, "error", err)
	}
	return d, nil
}

var _ Resolver = (*Cached)(nil)
