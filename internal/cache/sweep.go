package cache

import (
	"context"
	"fmt"
	"time"

	"WakeOrPay/storage/redis"
)

const (
	chargedPrefix          = "charge:done"
	messageProcessedPrefix = "message:processed"

	chargedTTL   = 48 * time.Hour
	processedTTL = 48 * time.Hour
)

// MarkCharged records that a penalty charge was issued for (user, date). This
// is a fast-path hint for the sweep; the database uniqueness on
// (user_id, charge_date) stays authoritative.
func MarkCharged(ctx context.Context, date string, userID int64) error {
	key := redis.Key(chargedPrefix, date, fmt.Sprintf("%d", userID))
	return redis.Client().Set(ctx, key, "1", chargedTTL).Err()
}

// IsCharged checks the charge hint for (user, date).
func IsCharged(ctx context.Context, date string, userID int64) (bool, error) {
	key := redis.Key(chargedPrefix, date, fmt.Sprintf("%d", userID))
	result, err := redis.Client().Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check charged status: %w", err)
	}
	return result > 0, nil
}

// TryMarkMessageProcessing atomically claims a message id for processing.
// True means this consumer is the first; false means a duplicate delivery.
func TryMarkMessageProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	key := redis.Key(messageProcessedPrefix, messageID)
	if ttl <= 0 {
		ttl = processedTTL
	}
	result, err := redis.Client().SetNX(ctx, key, "processing", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark message as processing: %w", err)
	}
	return result, nil
}

// UnmarkMessageProcessing releases the claim so a failed message can be
// retried on redelivery.
func UnmarkMessageProcessing(ctx context.Context, messageID string) error {
	key := redis.Key(messageProcessedPrefix, messageID)
	return redis.Client().Del(ctx, key).Err()
}

// MarkMessageProcessed seals the claim after successful processing.
func MarkMessageProcessed(ctx context.Context, messageID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = processedTTL
	}
	key := redis.Key(messageProcessedPrefix, messageID)
	return redis.Client().Set(ctx, key, "done", ttl).Err()
}
