package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coccinelle-ai/channel-engine/middleware"
	"github.com/coccinelle-ai/channel-engine/models"
	"github.com/coccinelle-ai/channel-engine/utils"
	"go.uber.org/zap"
)

// RecipientPayload carries the recipient contact data for a routing request
type RecipientPayload struct {
	Name             string `json:"name,omitempty"`
	Phone            string `json:"phone,omitempty" validate:"omitempty,e164_phone"`
	Email            string `json:"email,omitempty" validate:"omitempty,email"`
	PreferredChannel string `json:"preferred_channel,omitempty" validate:"omitempty,oneof=email sms voice whatsapp"`
}

// MessagePayload carries the message content for a routing request
type MessagePayload struct {
	Subject string            `json:"subject,omitempty" validate:"max=256"`
	Body    string            `json:"body" validate:"required"`
	Type    string            `json:"type,omitempty" validate:"omitempty,oneof=general transactional urgent marketing"`
	Data    map[string]string `json:"data,omitempty"`
}

// MessageRequest is the request body for both decide and route
type MessageRequest struct {
	Recipient RecipientPayload `json:"recipient" validate:"required"`
	Message   MessagePayload   `json:"message" validate:"required"`
	Priority  string           `json:"priority,omitempty" validate:"omitempty,oneof=low normal high urgent"`
}

// RouteResponse carries the decision together with the delivery outcome
type RouteResponse struct {
	Decision *models.ChannelDecision `json:"decision"`
	Outcome  *models.DeliveryOutcome `json:"outcome"`
}

// TenantResolver resolves a tenant routing key to a config snapshot
type TenantResolver interface {
	GetByRoutingKey(ctx context.Context, routingKey string) (*models.TenantConfig, error)
}

// DecisionService chooses the best channel for a recipient and message
type DecisionService interface {
	Decide(ctx context.Context, tenant *models.TenantConfig, recipient *models.RecipientProfile, priority models.RoutingPriority, msg *models.Message) (*models.ChannelDecision, error)
}

// DeliveryService delivers a message according to a channel decision
type DeliveryService interface {
	Route(ctx context.Context, tenant *models.TenantConfig, recipient *models.RecipientProfile, msg *models.Message, decision *models.ChannelDecision) *models.DeliveryOutcome
}

// MessageHandler handles channel decision and routing HTTP requests
type MessageHandler struct {
	tenants  TenantResolver
	decision DecisionService
	delivery DeliveryService
	logger   *zap.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(tenants TenantResolver, decision DecisionService, delivery DeliveryService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		tenants:  tenants,
		decision: decision,
		delivery: delivery,
		logger:   logger,
	}
}

// HandleDecide handles POST /api/v1/messages/decide
// Returns the channel decision without sending anything.
func (h *MessageHandler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	tenant, req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	recipient, priority, msg := req.toModels()

	decision, err := h.decision.Decide(ctx, tenant, recipient, priority, msg)
	if err != nil {
		h.logger.Warn("decision failed",
			zap.String("request_id", requestID),
			zap.String("tenant_id", tenant.ID.String()),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("channel decided",
		zap.String("request_id", requestID),
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("channel", string(decision.Channel)),
		zap.Float64("confidence", decision.Confidence))

	if err := utils.WriteOK(w, decision); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

// HandleRoute handles POST /api/v1/messages/route
// Decides the best channel and delivers, falling back on retryable failures.
func (h *MessageHandler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	tenant, req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	recipient, priority, msg := req.toModels()

	decision, err := h.decision.Decide(ctx, tenant, recipient, priority, msg)
	if err != nil {
		h.logger.Warn("decision failed",
			zap.String("request_id", requestID),
			zap.String("tenant_id", tenant.ID.String()),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	outcome := h.delivery.Route(ctx, tenant, recipient, msg, decision)

	status := http.StatusOK
	if !outcome.Success && outcome.Error != nil {
		if outcome.Error.Kind == "cancelled" {
			status = utils.StatusClientClosedRequest
		} else {
			status = http.StatusBadGateway
		}
	}

	h.logger.Info("routing completed",
		zap.String("request_id", requestID),
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("channel", string(outcome.Channel)),
		zap.Bool("success", outcome.Success),
		zap.Bool("fallback_attempted", outcome.FallbackAttempted))

	if err := utils.WriteJSON(w, status, RouteResponse{
		Decision: decision,
		Outcome:  outcome,
	}); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

// parseRequest resolves the tenant, decodes and validates the request body.
// Writes the error response itself when returning ok=false.
func (h *MessageHandler) parseRequest(w http.ResponseWriter, r *http.Request) (*models.TenantConfig, *MessageRequest, bool) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	tenantKey := middleware.GetTenantKeyFromContext(ctx)
	if tenantKey == "" {
		h.logger.Error("missing tenant key in context",
			zap.String("request_id", requestID))
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return nil, nil, false
	}

	tenant, err := h.tenants.GetByRoutingKey(ctx, tenantKey)
	if err != nil {
		h.logger.Warn("tenant lookup failed",
			zap.String("request_id", requestID),
			zap.String("tenant_key", tenantKey),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return nil, nil, false
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return nil, nil, false
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return nil, nil, false
	}

	// A recipient with no contact points can never be reached
	if req.Recipient.Phone == "" && req.Recipient.Email == "" {
		_ = utils.WriteBadRequest(w, "Recipient needs at least one contact point", map[string]interface{}{
			"recipient": "phone or email is required",
		})
		return nil, nil, false
	}

	return tenant, &req, true
}

// toModels converts the wire request to service-level models
func (r *MessageRequest) toModels() (*models.RecipientProfile, models.RoutingPriority, *models.Message) {
	recipient := &models.RecipientProfile{
		DisplayName: r.Recipient.Name,
		Phone:       r.Recipient.Phone,
		Email:       r.Recipient.Email,
	}
	if r.Recipient.PreferredChannel != "" {
		if kind, err := models.ParseChannelKind(r.Recipient.PreferredChannel); err == nil {
			recipient.PreferredChannel = &kind
		}
	}

	priority := models.PriorityNormal
	if r.Priority != "" {
		priority = models.RoutingPriority(r.Priority)
	}

	msgType := models.MessageGeneral
	if r.Message.Type != "" {
		msgType = models.MessageType(r.Message.Type)
	}

	msg := &models.Message{
		Subject:      r.Message.Subject,
		Body:         r.Message.Body,
		Type:         msgType,
		TemplateData: r.Message.Data,
	}

	return recipient, priority, msg
}
