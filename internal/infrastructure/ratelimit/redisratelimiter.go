package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter shared by every server instance.
// Each key gets one counter per window with a TTL slightly longer than it.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	cfg    Config
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, prefix string, cfg Config) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		cfg:    cfg.normalized(),
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := l.now().Unix() / int64(l.cfg.Window.Seconds())
	redisKey := fmt.Sprintf("ratelimit:%s:%s:%d", l.prefix, key, bucket)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.cfg.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	return incr.Val() <= int64(l.cfg.Limit), nil
}
