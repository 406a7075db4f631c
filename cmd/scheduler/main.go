package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"WakeOrPay/config"
	"WakeOrPay/internal/service"
	"WakeOrPay/pkg/logger"
	"WakeOrPay/pkg/metrics"
	"WakeOrPay/pkg/payment"
	"WakeOrPay/pkg/snowflake"
	"WakeOrPay/storage"
)

func main() {
	config.Load()

	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.L().Info("Scheduler received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := storage.Init(); err != nil {
		logger.L().Fatal("Failed to initialize storage for scheduler", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.L().Fatal("Failed to initialize snowflake for scheduler", zap.Error(err))
	}

	if err := payment.Init(); err != nil {
		logger.L().Fatal("Failed to initialize payment client for scheduler", zap.Error(err))
	}

	if err := metrics.InitMetrics(); err != nil {
		logger.L().Warn("Failed to initialize settlement metrics", zap.Error(err))
	}

	logger.L().Info("Scheduler service starting",
		zap.String("service", config.Cfg.ServiceName+"-scheduler"),
		zap.String("environment", config.Cfg.Environment),
		zap.Int("sweep_interval_seconds", config.Cfg.SweepIntervalSec),
	)

	runSweepLoop(ctx)

	logger.L().Info("Scheduler service shutting down gracefully")
}

// runSweepLoop runs the settlement sweep at the configured cadence. Sweeps are
// idempotent, so an extra run after a missed tick is harmless.
func runSweepLoop(ctx context.Context) {
	interval := time.Duration(config.Cfg.SweepIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	settlement := service.Settlement()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			result, err := settlement.Sweep(runCtx)
			cancel()

			if err != nil {
				if err == service.ErrSweepInProgress {
					logger.L().Warn("Skipping sweep tick, previous sweep still running")
					continue
				}
				logger.L().Error("Settlement sweep failed", zap.Error(err))
				continue
			}

			logger.L().Info("Settlement sweep finished",
				zap.String("sweep_id", result.SweepID),
				zap.Int("total_alarms", result.TotalAlarms),
				zap.Int("processed", result.Processed),
				zap.Int("charged", result.Charged),
				zap.Int("skipped", result.Skipped),
				zap.Int("errors", result.Errors),
			)
		}
	}
}
