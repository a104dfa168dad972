package availability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coccinelle-ai/channel-engine/models"
	"github.com/go-redis/redis/v8"
)

// RedisSuspensionStore keeps per-tenant channel cooldowns in Redis so that
// suspensions are shared across engine instances. Keys expire on their own;
// reading is a single EXISTS on the hot path.
type RedisSuspensionStore struct {
	client   *redis.Client
	cooldown time.Duration
}

// NewRedisSuspensionStore creates a Redis-backed suspension store
func NewRedisSuspensionStore(client *redis.Client, cooldown time.Duration) *RedisSuspensionStore {
	if cooldown == 0 {
		cooldown = 15 * time.Minute
	}
	return &RedisSuspensionStore{client: client, cooldown: cooldown}
}

func suspensionKey(tenantID string, kind models.ChannelKind) string {
	return fmt.Sprintf("channel:suspended:%s:%s", tenantID, kind)
}

// IsSuspended reports whether the channel is inside its cooldown window
func (s *RedisSuspensionStore) IsSuspended(ctx context.Context, tenantID string, kind models.ChannelKind) (bool, error) {
	n, err := s.client.Exists(ctx, suspensionKey(tenantID, kind)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Suspend places the channel in a cooldown window for the tenant
func (s *RedisSuspensionStore) Suspend(ctx context.Context, tenantID string, kind models.ChannelKind) error {
	return s.client.Set(ctx, suspensionKey(tenantID, kind), time.Now().UTC().Format(time.RFC3339), s.cooldown).Err()
}

// MemorySuspensionStore is an in-process suspension store for tests and
// deployments without Redis.
type MemorySuspensionStore struct {
	mu       sync.RWMutex
	until    map[string]time.Time
	cooldown time.Duration
}

// NewMemorySuspensionStore creates an in-memory suspension store
func NewMemorySuspensionStore(cooldown time.Duration) *MemorySuspensionStore {
	if cooldown == 0 {
		cooldown = 15 * time.Minute
	}
	return &MemorySuspensionStore{
		until:    make(map[string]time.Time),
		cooldown: cooldown,
	}
}

// IsSuspended reports whether the channel is inside its cooldown window
func (s *MemorySuspensionStore) IsSuspended(_ context.Context, tenantID string, kind models.ChannelKind) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deadline, ok := s.until[suspensionKey(tenantID, kind)]
	return ok && time.Now().Before(deadline), nil
}

// Suspend places the channel in a cooldown window for the tenant
func (s *MemorySuspensionStore) Suspend(_ context.Context, tenantID string, kind models.ChannelKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.until[suspensionKey(tenantID, kind)] = time.Now().Add(s.cooldown)
	return nil
}
