package main

import (
	"WakeOrPay/config"
	"WakeOrPay/internal/repository"
	"WakeOrPay/pkg/logger"
)

func main() {
	config.Load()

	logger.Init()
	defer logger.Sync()

	repository.RunGenerate()
}
