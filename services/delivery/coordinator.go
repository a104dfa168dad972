package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/coccinelle-ai/channel-engine/models"
	"github.com/coccinelle-ai/channel-engine/services/channels"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds coordinator settings.
type Config struct {
	// AttemptTimeout bounds each individual channel attempt. Exceeding it
	// is a retryable failure for that channel.
	AttemptTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		AttemptTimeout: 5 * time.Second,
	}
}

// Suspender records a channel cooldown after a hard provider failure so
// availability reflects it on subsequent calls. Optional.
type Suspender interface {
	Suspend(ctx context.Context, tenantID string, kind models.ChannelKind) error
}

// Coordinator executes a channel decision: it calls the chosen adapter,
// classifies the outcome, and on retryable failure walks the fallback order
// until success, exhaustion, or a non-retryable error.
//
// Attempts within one call are strictly sequential; sending through multiple
// channels at once would risk duplicate customer contact. The attempt
// sequence is exactly the fallback order computed at decision time and is
// never recomputed mid-flight.
type Coordinator struct {
	config    Config
	registry  *channels.Registry
	suspender Suspender
	logger    *zap.Logger
}

// NewCoordinator creates a delivery coordinator. suspender may be nil.
func NewCoordinator(config Config, registry *channels.Registry, suspender Suspender, logger *zap.Logger) *Coordinator {
	if config.AttemptTimeout == 0 {
		config.AttemptTimeout = 5 * time.Second
	}
	return &Coordinator{
		config:    config,
		registry:  registry,
		suspender: suspender,
		logger:    logger,
	}
}

// Route attempts delivery along the decision's fallback order and returns
// the single terminal outcome for the call. The caller receives one
// DeliveryOutcome, never a list of per-attempt errors; the attempt chain is
// logged for diagnostics.
func (c *Coordinator) Route(ctx context.Context, tenant *models.TenantConfig, recipient *models.RecipientProfile, msg *models.Message, decision *models.ChannelDecision) *models.DeliveryOutcome {
	routeID := uuid.New()
	order := decision.FallbackOrder()

	var lastErr *channels.ProviderError
	var lastKind models.ChannelKind
	attempted := 0
	seen := make(map[models.ChannelKind]bool, len(order))

	for _, kind := range order {
		// Each kind is attempted at most once per routing call.
		if seen[kind] {
			continue
		}
		seen[kind] = true

		if err := ctx.Err(); err != nil {
			return c.cancelledOutcome(kind, attempted)
		}

		adapter, err := c.registry.Get(kind)
		if err != nil {
			c.logger.Warn("decision names channel with no adapter",
				zap.String("route_id", routeID.String()),
				zap.String("channel", string(kind)))
			continue
		}

		attempted++
		lastKind = kind

		receipt, sendErr := c.attempt(ctx, adapter, tenant, recipient, msg, routeID, attempted)
		if sendErr == nil {
			return c.successOutcome(kind, receipt, attempted)
		}

		// Caller cancellation must surface distinctly; the adapter sees it
		// as a transport failure, so check the parent context first.
		if ctx.Err() != nil {
			return c.cancelledOutcome(kind, attempted)
		}

		var provErr *channels.ProviderError
		if !errors.As(sendErr, &provErr) {
			provErr = channels.NewProviderError(kind, "UNCLASSIFIED", sendErr.Error(), 0, false, sendErr)
		}
		lastErr = provErr

		c.logger.Warn("channel attempt failed",
			zap.String("route_id", routeID.String()),
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("channel", string(kind)),
			zap.Int("attempt", attempted),
			zap.Bool("retryable", provErr.Retryable),
			zap.String("code", provErr.Code),
			zap.Error(provErr))

		if !provErr.Retryable {
			// Fatal failures never trigger fallback; retrying invalid
			// recipient data through every channel would spam the contact.
			// Account-level rejections additionally open a cooldown window
			// so later calls skip the channel up front.
			if provErr.StatusCode == 401 || provErr.StatusCode == 403 {
				c.recordSuspension(ctx, tenant, kind)
			}
			return c.failedOutcome(kind, provErr, "fatal", attempted)
		}
	}

	if lastErr == nil {
		// Nothing attempted at all: every channel in the order lacked an
		// adapter. Treated as exhaustion with a synthetic detail.
		lastErr = channels.NewProviderError(decision.Channel, "NO_ADAPTER", "no adapter available for any ranked channel", 0, true, nil)
		lastKind = decision.Channel
	}

	c.logger.Error("fallback order exhausted",
		zap.String("route_id", routeID.String()),
		zap.String("tenant_id", tenant.ID.String()),
		zap.Int("attempts", attempted),
		zap.String("last_channel", string(lastKind)))

	outcome := c.failedOutcome(lastKind, lastErr, "retryable", attempted)
	outcome.FallbackAttempted = true
	fk := lastKind
	outcome.FallbackChannel = &fk
	return outcome
}

// attempt runs one bounded send through one adapter.
func (c *Coordinator) attempt(ctx context.Context, adapter channels.Adapter, tenant *models.TenantConfig, recipient *models.RecipientProfile, msg *models.Message, routeID uuid.UUID, attempt int) (*channels.Receipt, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.AttemptTimeout)
	defer cancel()

	c.logger.Info("attempting channel",
		zap.String("route_id", routeID.String()),
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("channel", string(adapter.Kind())),
		zap.Int("attempt", attempt))

	return adapter.Send(attemptCtx, &channels.SendRequest{
		Tenant:        tenant,
		To:            recipient.ContactFor(adapter.Kind()),
		RecipientName: recipient.DisplayName,
		Message:       msg,
	})
}

func (c *Coordinator) recordSuspension(ctx context.Context, tenant *models.TenantConfig, kind models.ChannelKind) {
	if c.suspender == nil {
		return
	}
	if err := c.suspender.Suspend(ctx, tenant.ID.String(), kind); err != nil {
		c.logger.Warn("failed to record channel suspension",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("channel", string(kind)),
			zap.Error(err))
	}
}

func (c *Coordinator) successOutcome(kind models.ChannelKind, receipt *channels.Receipt, attempted int) *models.DeliveryOutcome {
	status := models.StatusSent
	if receipt.ProviderStatus == "queued" || receipt.ProviderStatus == "accepted" {
		status = models.StatusQueued
	}

	outcome := &models.DeliveryOutcome{
		Success:           true,
		Channel:           kind,
		ProviderMessageID: receipt.ProviderMessageID,
		Status:            status,
	}
	if attempted > 1 {
		outcome.FallbackAttempted = true
		fk := kind
		outcome.FallbackChannel = &fk
	}
	return outcome
}

func (c *Coordinator) failedOutcome(kind models.ChannelKind, provErr *channels.ProviderError, errKind string, attempted int) *models.DeliveryOutcome {
	outcome := &models.DeliveryOutcome{
		Success: false,
		Channel: kind,
		Status:  models.StatusFailed,
		Error: &models.ErrorDetail{
			Kind:    errKind,
			Channel: string(provErr.Channel),
			Code:    provErr.Code,
			Message: provErr.Message,
		},
	}
	if attempted > 1 {
		outcome.FallbackAttempted = true
		fk := kind
		outcome.FallbackChannel = &fk
	}
	return outcome
}

func (c *Coordinator) cancelledOutcome(kind models.ChannelKind, attempted int) *models.DeliveryOutcome {
	return &models.DeliveryOutcome{
		Success: false,
		Channel: kind,
		Status:  models.StatusFailed,
		Error: &models.ErrorDetail{
			Kind:    "cancelled",
			Channel: string(kind),
			Message: "routing cancelled by caller",
		},
		FallbackAttempted: attempted > 1,
	}
}
