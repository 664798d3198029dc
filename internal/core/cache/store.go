package cache

import (
	"context"
	"time"

	"meal-companion/internal/infrastructure/config"
)

// Store 鍵值儲存介面
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Stats() map[string]interface{}
	Close() error
}

// NewStore 依設定建立儲存
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg.Cache.Driver == "redis" {
		return NewRedisStore(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.KeyPrefix)
	}
	return NewMemoryStore(cfg.Cache.MaxSize, cfg.Cache.CleanupInterval), nil
}
