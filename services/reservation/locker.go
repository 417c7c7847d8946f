package reservation

import (
	"context"
	"fmt"
	"time"

	"tsunagu/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Locker serializes slot mutations for one event. Acquire blocks until the
// lock is held or the wait budget runs out; the returned func releases it.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

const (
	lockTTL       = 10 * time.Second
	lockWait      = 5 * time.Second
	lockRetryStep = 100 * time.Millisecond
)

// unlockScript releases the lock only when the caller still owns it.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`)

// RedisLocker implements Locker with a token-guarded SETNX lock.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker creates a Locker backed by the given Redis client.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire polls for the lock every 100ms for up to 5 seconds.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()
	deadline := time.Now().Add(lockWait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			release := func() {
				relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := unlockScript.Run(relCtx, l.client, []string{key}, token).Err(); err != nil {
					utils.GetLogger().Warn("Failed to release lock",
						zap.String("key", key), zap.Error(err))
				}
			}
			return release, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for lock %s", key)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryStep):
		}
	}
}
