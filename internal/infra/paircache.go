// README: Redis-backed distance pair cache shared across instances.
package infra

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pairKeyPrefix = "carpool:dist:"
	// Coordinates never move, but bound the footprint anyway.
	pairKeyTTL = 24 * time.Hour
)

// RedisPairCache implements geo.PairCache on Redis, so distance lookups for
// identical coordinate pairs are shared across processes. Any Redis error
// degrades to a cache miss.
type RedisPairCache struct {
	redis *redis.Client
}

func NewRedisPairCache(client *redis.Client) *RedisPairCache {
	return &RedisPairCache{redis: client}
}

func (c *RedisPairCache) Get(ctx context.Context, key string) (float64, bool) {
	val, err := c.redis.Get(ctx, pairKeyPrefix+key).Result()
	if err != nil {
		return 0, false
	}
	meters, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return meters, true
}

func (c *RedisPairCache) Set(ctx context.Context, key string, meters float64) {
	_ = c.redis.Set(ctx, pairKeyPrefix+key,
		strconv.FormatFloat(meters, 'f', -1, 64), pairKeyTTL).Err()
}
