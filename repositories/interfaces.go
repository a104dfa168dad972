package repositories

import (
	"context"

	"github.com/coccinelle-ai/channel-engine/models"
	"github.com/google/uuid"
)

// TenantConfigRepository provides read access to tenant channel
// configuration. The orchestrator only ever reads; writes happen through the
// onboarding surface, which is a separate system.
type TenantConfigRepository interface {
	// GetByID loads the full channel configuration snapshot for a tenant.
	GetByID(ctx context.Context, id uuid.UUID) (*models.TenantConfig, error)

	// GetByRoutingKey resolves an opaque tenant routing key (as carried in
	// API tokens and provider webhooks) to a configuration snapshot.
	GetByRoutingKey(ctx context.Context, key string) (*models.TenantConfig, error)
}
