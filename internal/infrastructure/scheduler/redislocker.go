package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var errLockHeld = errors.New("job lock held by another instance")

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a gocron distributed locker backed by SET NX with a TTL.
// The TTL bounds how long a crashed instance can block a job.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

var _ gocron.Locker = (*RedisLocker)(nil)

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (gocron.Lock, error) {
	redisKey := "lnsubs:job-lock:" + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire job lock: %w", err)
	}
	if !ok {
		return nil, errLockHeld
	}

	return &redisLock{client: l.client, key: redisKey, token: token}, nil
}

type redisLock struct {
	client *redis.Client
	key    string
	token  string
}

func (l *redisLock) Unlock(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("failed to release job lock: %w", err)
	}
	return nil
}
