package cache

import (
	"context"
	"time"

	"WakeOrPay/storage/redis"
)

const lockPrefix = "lock"

// TryLock takes a best-effort distributed lock. The settlement sweep holds
// one so overlapping scheduler replicas do not scan the same window twice.
func TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	fullKey := redis.Key(lockPrefix, key)
	result, err := redis.Client().SetNX(ctx, fullKey, 1, ttl).Result()
	if err != nil {
		return false, err
	}
	return result, nil
}

func Unlock(ctx context.Context, key string) error {
	fullKey := redis.Key(lockPrefix, key)
	return redis.Client().Del(ctx, fullKey).Err()
}
