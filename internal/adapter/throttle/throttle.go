package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard decides whether a gateway status query for key may run now.
type Guard interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type setNXer interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisGuard allows one call per key per interval across all service replicas.
type RedisGuard struct {
	client   setNXer
	interval time.Duration
}

// NewRedisGuard creates a guard backed by SET NX with expiry.
func NewRedisGuard(client setNXer, interval time.Duration) *RedisGuard {
	return &RedisGuard{client: client, interval: interval}
}

func (g *RedisGuard) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, cacheKey(key), 1, g.interval).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

// Unlimited never throttles.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, error) { return true, nil }

func cacheKey(key string) string {
	return fmt.Sprintf("poll:%s", key)
}
