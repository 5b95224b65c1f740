package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisThrottle allows one action per key per window using SET NX PX.
type RedisThrottle struct {
	client *redis.Client
	prefix string
}

// NewRedisThrottle returns a throttle backed by client.  A nil client
// yields a throttle that always allows.
func NewRedisThrottle(client *redis.Client, prefix string) *RedisThrottle {
	if prefix == "" {
		prefix = "throttle"
	}
	return &RedisThrottle{client: client, prefix: prefix}
}

// Allow claims key for window.  It returns false while a previous claim is
// still live.
func (t *RedisThrottle) Allow(ctx context.Context, key string, window time.Duration) (bool, error) {
	if t == nil || t.client == nil || window <= 0 {
		return true, nil
	}
	return t.client.SetNX(ctx, t.prefix+":"+key, 1, window).Result()
}
