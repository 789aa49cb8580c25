package cache

import (
	"go.uber.org/zap"

	"github.com/vendorhub/backend/internal/domain/shared"
	"github.com/vendorhub/backend/internal/infrastructure/config"
)

// NewIdempotencyStore returns a Redis-backed store when Redis is reachable,
// otherwise an in-memory one. The fallback keeps single-node deployments
// working without Redis; multi-instance deployments need it.
func NewIdempotencyStore(cfg config.RedisConfig, logger *zap.Logger) shared.IdempotencyStore {
	store, err := NewRedisIdempotencyStore(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory idempotency store",
			zap.String("addr", cfg.Addr()),
			zap.Error(err))
		return NewMemoryIdempotencyStore()
	}
	logger.Info("Idempotency store backed by Redis", zap.String("addr", cfg.Addr()))
	return store
}
