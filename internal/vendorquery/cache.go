// internal/vendorquery/cache.go
package vendorquery

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"vendor-matching/internal/common/logger"
	"vendor-matching/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "vendorquery:"

// CachedSource serves repeated identical queries from Redis. Failed lookups
// are never cached, and a Redis outage falls through to the wrapped source.
type CachedSource struct {
	next   Source
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedSource(next Source, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedSource {
	return &CachedSource{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"source": next.Name(), "cache": "redis"}),
	}
}

func (c *CachedSource) Name() string { return c.next.Name() }

func (c *CachedSource) FetchCandidates(ctx context.Context, q Query) (*CandidateSet, error) {
	key := cacheKeyPrefix + q.Key()

	cached, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var set CandidateSet
		if jsonErr := json.Unmarshal(cached, &set); jsonErr == nil {
			metrics.VendorQueries.WithLabelValues(c.Name(), "cache_hit").Inc()
			return &set, nil
		}
		c.logger.Warn("discarding unreadable cache entry", map[string]interface{}{"key": key})
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("candidate cache unavailable", map[string]interface{}{"error": err})
	}

	set, err := c.next.FetchCandidates(ctx, q)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(set)
	if err == nil {
		if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("failed to store candidates", map[string]interface{}{"key": key, "error": err})
		}
	}

	return set, nil
}
