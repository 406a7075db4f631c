package middleware

import (
	"go.uber.org/zap"

	"WakeOrPay/pkg/logger"
)

// Init wires up the middlewares that need shared state.
func Init() error {
	if err := initAuthMiddleware(); err != nil {
		logger.L().Error("Failed to initialize auth middleware", zap.Error(err))
		return err
	}

	logger.L().Info("All middlewares initialized successfully")
	return nil
}
