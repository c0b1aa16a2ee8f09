package cache

import (
	"context"
	"errors"
	"fmt"
	"freight-tariff-service/internal/domain"
	"freight-tariff-service/internal/platform/obs"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const distanceKeyPrefix = "distance:"

// RedisDistanceCache keeps resolved distances in Redis with a TTL so road
// network changes are eventually picked up.
type RedisDistanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDistanceCache(client *redis.Client, ttl time.Duration) *RedisDistanceCache {
	return &RedisDistanceCache{client: client, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis client: parse url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis client: ping: %w", err)
	}
	return client, nil
}

func distanceKey(from, to domain.Coordinates) string {
	return distanceKeyPrefix + from.Key() + "|" + to.Key()
}

func (c *RedisDistanceCache) Get(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
) (_ decimal.Decimal, _ bool, err error) {
	defer obs.Time(ctx, "distance.redis.Get")(&err)

	raw, err := c.client.Get(ctx, distanceKey(from, to)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("get redis distance cache: %w", err)
	}

	km, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("get redis distance cache: parse %q: %w", raw, err)
	}
	return km, true, nil
}

func (c *RedisDistanceCache) Put(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
	km decimal.Decimal,
) error {
	if err := c.client.Set(ctx, distanceKey(from, to), km.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("put redis distance cache: %w", err)
	}
	return nil
}
