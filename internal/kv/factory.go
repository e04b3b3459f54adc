package kv

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/trackwave/presenced/internal/common/config"
)

// Type represents the type of key-value store
type Type string

const (
	// TypeMemory represents the in-memory store
	TypeMemory Type = "memory"
	// TypeRedis represents the Redis-based store
	TypeRedis Type = "redis"
)

// NewStore creates a new key-value store based on configuration
func NewStore(logger *zap.Logger, cfg config.StoreConfig) (Store, error) {
	logger.Info("Initializing key-value store", zap.String("type", cfg.Type))
	switch Type(cfg.Type) {
	case TypeMemory:
		return NewMemoryStore(logger), nil
	case TypeRedis:
		return NewRedisStore(logger, cfg)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}
