package tenantconfig

import (
	"context"
	"time"

	"github.com/coccinelle-ai/channel-engine/models"
	"github.com/coccinelle-ai/channel-engine/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is a read-through snapshot store for tenant channel configuration.
// Lookups hit the cache first and fall back to the repository on a miss.
type Store struct {
	repo   repositories.TenantConfigRepository
	cache  *ConfigCache
	logger *zap.Logger
}

// NewStore creates a tenant config store with the given cache sizing
func NewStore(repo repositories.TenantConfigRepository, maxSize int, ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		repo:   repo,
		cache:  NewConfigCache(maxSize, ttl),
		logger: logger,
	}
}

// GetByID returns the tenant config for the given tenant ID
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*models.TenantConfig, error) {
	key := "id:" + id.String()
	if cfg := s.cache.Get(key); cfg != nil {
		return cfg, nil
	}

	cfg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, cfg)
	s.cache.Set("rk:"+cfg.RoutingKey, cfg)
	s.logger.Debug("tenant config cached", zap.String("tenant_id", id.String()))
	return cfg, nil
}

// GetByRoutingKey returns the tenant config for the given routing key
func (s *Store) GetByRoutingKey(ctx context.Context, routingKey string) (*models.TenantConfig, error) {
	key := "rk:" + routingKey
	if cfg := s.cache.Get(key); cfg != nil {
		return cfg, nil
	}

	cfg, err := s.repo.GetByRoutingKey(ctx, routingKey)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, cfg)
	s.cache.Set("id:"+cfg.ID.String(), cfg)
	return cfg, nil
}

// Invalidate drops the cached snapshot for a tenant
func (s *Store) Invalidate(cfg *models.TenantConfig) {
	s.cache.Invalidate("id:" + cfg.ID.String())
	s.cache.Invalidate("rk:" + cfg.RoutingKey)
}

// CacheStats exposes cache hit/miss counters
func (s *Store) CacheStats() CacheStats {
	return s.cache.Stats()
}
