package deals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "deals:top"

type Cache interface {
	Get(ctx context.Context) ([]Deal, bool, error)
	Set(ctx context.Context, deals []Deal, ttl time.Duration) error
}

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (r *RedisCache) Get(ctx context.Context) ([]Deal, bool, error) {
	val, err := r.client.Get(ctx, cacheKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var cached []Deal

	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return nil, false, fmt.Errorf("decode cached deals: %w", err)
	}

	return cached, true, nil
}

func (r *RedisCache) Set(ctx context.Context, deals []Deal, ttl time.Duration) error {
	data, err := json.Marshal(deals)

	if err != nil {
		return err
	}

	return r.client.Set(ctx, cacheKey, data, ttl).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
