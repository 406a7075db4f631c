package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"WakeOrPay/config"
	"WakeOrPay/internal/middleware"
	"WakeOrPay/internal/router"
	"WakeOrPay/pkg/logger"
	"WakeOrPay/pkg/metrics"
	pkgotel "WakeOrPay/pkg/otel"
	"WakeOrPay/pkg/payment"
	"WakeOrPay/pkg/snowflake"
	"WakeOrPay/pkg/token"
	"WakeOrPay/storage"
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

	if err := storage.Init(); err != nil {
		logger.L().Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.L().Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	if err := payment.Init(); err != nil {
		logger.L().Fatal("Failed to initialize payment client", zap.Error(err))
	}

	// token before middleware, the auth middleware wraps the shared generator
	if err := token.Init(); err != nil {
		logger.L().Fatal("Failed to initialize token package", zap.Error(err))
	}

	if err := middleware.Init(); err != nil {
		logger.L().Fatal("Failed to initialize middlewares", zap.Error(err))
	}

	otelShutdown, err := pkgotel.InitOpenTelemetry(ctx, pkgotel.Config{
		ServiceName:  config.Cfg.ServiceName,
		Environment:  config.Cfg.Environment,
		OTLPEndpoint: config.Cfg.OTLPEndpoint,
	})
	if err != nil {
		logger.L().Warn("Failed to initialize OpenTelemetry, telemetry disabled", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				logger.L().Error("Failed to shutdown OpenTelemetry", zap.Error(err))
			}
		}()
	}

	if err := metrics.InitMetrics(); err != nil {
		logger.L().Warn("Failed to initialize settlement metrics", zap.Error(err))
	}
	if err := middleware.InitMetrics(otel.Meter("hertz-server")); err != nil {
		logger.L().Warn("Failed to initialize HTTP metrics", zap.Error(err))
	}

	logger.L().Info("Server starting",
		zap.String("service", config.Cfg.ServiceName),
		zap.String("port", config.Cfg.ServerPort),
		zap.String("environment", config.Cfg.Environment),
	)

	addr := net.JoinHostPort(config.Cfg.ServerHost, config.Cfg.ServerPort)
	tracerOpt, tracerMW := middleware.NewServerTracerConfig()
	h := server.Default(server.WithHostPorts(addr), tracerOpt)
	h.Use(tracerMW)

	router.Register(h)

	go func() {
		<-ctx.Done()
		logger.L().Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.L().Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.L().Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	logger.L().Info("Server shutting down gracefully")
}
