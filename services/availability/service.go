package availability

import (
	"context"

	"github.com/coccinelle-ai/channel-engine/models"
	"go.uber.org/zap"
)

// Availability reasons reported when a channel is unusable.
const (
	ReasonNotConfigured  = "not configured"
	ReasonNoContactPoint = "no contact point"
	ReasonDisabled       = "disabled by tenant"
	ReasonSuspended      = "suspended"
)

// Result reports whether a channel is usable, with the first failing rule
// when it is not.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// SuspensionStore tracks channels placed in a cooldown window after hard
// provider failures. Implementations must be safe for concurrent use.
type SuspensionStore interface {
	IsSuspended(ctx context.Context, tenantID string, kind models.ChannelKind) (bool, error)
}

// Service derives, per tenant, which channels are usable for a recipient.
// It holds no mutable state and is safe to call concurrently and repeatedly.
type Service struct {
	suspensions SuspensionStore
	logger      *zap.Logger
}

// NewService creates an availability service. suspensions may be nil, in
// which case the suspension rule is skipped.
func NewService(suspensions SuspensionStore, logger *zap.Logger) *Service {
	return &Service{
		suspensions: suspensions,
		logger:      logger,
	}
}

// Available evaluates the rules in order; the first failure wins.
//  1. Tenant has valid provider credentials for the channel.
//  2. Recipient has the contact point the channel needs.
//  3. Channel is not suspended for the tenant (cooldown after hard failures).
func (s *Service) Available(ctx context.Context, tenant *models.TenantConfig, recipient *models.RecipientProfile, kind models.ChannelKind) Result {
	if !tenant.CredentialsFor(kind) {
		return Result{OK: false, Reason: ReasonNotConfigured}
	}

	if tenant.ChannelDisabled(kind) {
		return Result{OK: false, Reason: ReasonDisabled}
	}

	if !recipient.HasContactFor(kind) {
		return Result{OK: false, Reason: ReasonNoContactPoint}
	}

	if s.suspensions != nil {
		suspended, err := s.suspensions.IsSuspended(ctx, tenant.ID.String(), kind)
		if err != nil {
			// A failing suspension lookup must not take a channel down
			// with it; log and treat the channel as usable.
			s.logger.Warn("suspension lookup failed",
				zap.String("tenant_id", tenant.ID.String()),
				zap.String("channel", string(kind)),
				zap.Error(err))
		} else if suspended {
			return Result{OK: false, Reason: ReasonSuspended}
		}
	}

	return Result{OK: true}
}
