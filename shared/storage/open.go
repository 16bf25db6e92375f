package storage

import (
	"fmt"

	"retention-analyzer/shared/config"
)

// Open returns the backend selected in cfg.
func Open(cfg config.StorageConfig) (KeyValueStore, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Path)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendRedis:
		return NewRedisStore(cfg.RedisURL)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
