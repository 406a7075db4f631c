package storage

import (
	"WakeOrPay/config"
	"WakeOrPay/storage/database"
	"WakeOrPay/storage/mq"
	"WakeOrPay/storage/redis"
)

// Init brings up the storage layer. With STORAGE_DRIVER=memory nothing
// external is dialed; the process runs fully in-memory.
func Init() error {
	if config.Cfg.StorageDriver == "memory" {
		return nil
	}

	if err := database.Init(); err != nil {
		return err
	}

	if err := redis.Init(); err != nil {
		return err
	}

	if err := mq.Init(); err != nil {
		return err
	}

	return nil
}
