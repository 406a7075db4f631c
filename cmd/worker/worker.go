package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"WakeOrPay/config"
	"WakeOrPay/internal/queue"
	"WakeOrPay/internal/store"
	"WakeOrPay/pkg/logger"
	"WakeOrPay/pkg/snowflake"
	"WakeOrPay/storage"
	"WakeOrPay/storage/database"
)

func main() {
	config.Load()

	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.L().Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if config.Cfg.StorageDriver == "memory" {
		logger.L().Fatal("Worker requires postgres storage, the memory driver has no broker")
	}

	if err := storage.Init(); err != nil {
		logger.L().Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.L().Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	// consumers share the server's store so status updates land in the same tables
	queue.SetStore(store.NewGormStore(database.DB()))

	logger.L().Info("Worker service starting",
		zap.String("service", config.Cfg.ServiceName+"-worker"),
		zap.String("environment", config.Cfg.Environment),
	)

	startConsumers(ctx)

	<-ctx.Done()

	logger.L().Info("Worker service shutting down gracefully")
}

func startConsumers(ctx context.Context) {
	go func() {
		if err := queue.StartPenaltyChargedConsumer(ctx); err != nil {
			logger.L().Error("Penalty charged consumer stopped", zap.Error(err))
		}
	}()
	go func() {
		if err := queue.StartPaymentStatusConsumer(ctx); err != nil {
			logger.L().Error("Payment status consumer stopped", zap.Error(err))
		}
	}()
	go func() {
		if err := queue.StartReconciliationConsumer(ctx); err != nil {
			logger.L().Error("Reconciliation consumer stopped", zap.Error(err))
		}
	}()
}
