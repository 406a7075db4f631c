package service

import (
	"sync"
	"time"

	"WakeOrPay/config"
	"WakeOrPay/internal/store"
	"WakeOrPay/storage/database"
)

var (
	defaultStoreOnce sync.Once
	defaultStoreInst store.Store
)

// defaultStore picks the persistence backend from configuration. The memory
// driver is a real deployment mode for single-node dev, not a test shim.
func defaultStore() store.Store {
	defaultStoreOnce.Do(func() {
		if config.Cfg.StorageDriver == "memory" {
			defaultStoreInst = store.NewMemoryStore()
			return
		}
		defaultStoreInst = store.NewGormStore(database.DB())
	})
	return defaultStoreInst
}

func graceWindow() time.Duration {
	return time.Duration(config.Cfg.GraceMinutes) * time.Minute
}

func maxVerifyWindow() time.Duration {
	return time.Duration(config.Cfg.MaxVerifyMinutes) * time.Minute
}

// externalInfra reports whether Redis and RabbitMQ are part of this
// deployment. The memory driver runs without either.
func externalInfra() bool {
	return config.Cfg.StorageDriver != "memory"
}
