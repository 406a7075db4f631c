package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"WakeOrPay/config"
	"WakeOrPay/pkg/logger"
	"WakeOrPay/storage/database"
	"WakeOrPay/storage/mq"
	"WakeOrPay/storage/redis"
)

// Close shuts down storage connections in order: MQ first so no new work
// arrives, then Redis, then the database last so in-flight writes land.
func Close() {
	if config.Cfg.StorageDriver == "memory" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Logger.Info("Closing storage connections...")

	if err := mq.Close(ctx); err != nil {
		logger.Logger.Error("Failed to close message queue", zap.Error(err))
	}

	if err := redis.Close(ctx); err != nil {
		logger.Logger.Error("Failed to close Redis connection", zap.Error(err))
	}

	if err := database.Close(ctx); err != nil {
		logger.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	logger.Logger.Info("All storage connections closed")
}
