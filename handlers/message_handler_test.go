package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coccinelle-ai/channel-engine/middleware"
	"github.com/coccinelle-ai/channel-engine/models"
	"github.com/coccinelle-ai/channel-engine/services"
	"github.com/coccinelle-ai/channel-engine/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubTenants struct {
	cfg *models.TenantConfig
	err error
}

func (s *stubTenants) GetByRoutingKey(context.Context, string) (*models.TenantConfig, error) {
	return s.cfg, s.err
}

type stubDecision struct {
	decision *models.ChannelDecision
	err      error
}

func (s *stubDecision) Decide(context.Context, *models.TenantConfig, *models.RecipientProfile, models.RoutingPriority, *models.Message) (*models.ChannelDecision, error) {
	return s.decision, s.err
}

type stubDelivery struct {
	outcome *models.DeliveryOutcome
}

func (s *stubDelivery) Route(context.Context, *models.TenantConfig, *models.RecipientProfile, *models.Message, *models.ChannelDecision) *models.DeliveryOutcome {
	return s.outcome
}

func okTenant() *models.TenantConfig {
	return &models.TenantConfig{ID: uuid.New(), RoutingKey: "acme", Name: "Acme"}
}

func okDecision() *models.ChannelDecision {
	return &models.ChannelDecision{
		Channel:    models.ChannelSMS,
		Reason:     "high priority + phone available -> sms preferred",
		Confidence: 0.8,
	}
}

func validBody(t *testing.T) *bytes.Buffer {
	t.Helper()

	body, err := json.Marshal(MessageRequest{
		Recipient: RecipientPayload{Name: "Jordan", Phone: "+15557654321"},
		Message:   MessagePayload{Body: "your order shipped", Type: "transactional"},
		Priority:  "high",
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func doRequest(handler http.HandlerFunc, tenantKey string, body *bytes.Buffer) *httptest.ResponseRecorder {
	if body == nil {
		body = bytes.NewBufferString("")
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages/route", body)
	if tenantKey != "" {
		req = req.WithContext(middleware.WithTenantKey(req.Context(), tenantKey))
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleDecide_Success(t *testing.T) {
	h := NewMessageHandler(&stubTenants{cfg: okTenant()}, &stubDecision{decision: okDecision()}, &stubDelivery{}, zap.NewNop())

	rec := doRequest(h.HandleDecide, "acme", validBody(t))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp utils.SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)

	var decision models.ChannelDecision
	require.NoError(t, json.Unmarshal(data, &decision))
	assert.Equal(t, models.ChannelSMS, decision.Channel)
}

func TestHandleDecide_MissingTenantKey(t *testing.T) {
	h := NewMessageHandler(&stubTenants{cfg: okTenant()}, &stubDecision{decision: okDecision()}, &stubDelivery{}, zap.NewNop())

	rec := doRequest(h.HandleDecide, "", validBody(t))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleDecide_TenantNotFound(t *testing.T) {
	h := NewMessageHandler(&stubTenants{err: services.ErrTenantNotFound}, &stubDecision{decision: okDecision()}, &stubDelivery{}, zap.NewNop())

	rec := doRequest(h.HandleDecide, "ghost", validBody(t))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDecide_InvalidBody(t *testing.T) {
	h := NewMessageHandler(&stubTenants{cfg: okTenant()}, &stubDecision{decision: okDecision()}, &stubDelivery{}, zap.NewNop())

	rec := doRequest(h.HandleDecide, "acme", bytes.NewBufferString("{not json"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDecide_ValidationFailures(t *testing.T) {
	h := NewMessageHandler(&stubTenants{cfg: okTenant()}, &stubDecision{decision: okDecision()}, &stubDelivery{}, zap.NewNop())

	cases := []struct {
		name string
		req  MessageRequest
	}{
		{
			name: "missing body",
			req: MessageRequest{
				Recipient: RecipientPayload{Phone: "+15557654321"},
				Message:   MessagePayload{},
			},
		},
		{
			name: "bad phone format",
			req: MessageRequest{
				Recipient: RecipientPayload{Phone: "555-1234"},
				Message:   MessagePayload{Body: "hi"},
			},
		},
		{
			name: "bad priority",
			req: MessageRequest{
				Recipient: RecipientPayload{Phone: "+15557654321"},
				Message:   MessagePayload{Body: "hi"},
				Priority:  "asap",
			},
		},
		{
			name: "no contact points",
			req: MessageRequest{
				Recipient: RecipientPayload{Name: "Jordan"},
				Message:   MessagePayload{Body: "hi"},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, err := json.Marshal(tc.req)
			require.NoError(t, err)

			rec := doRequest(h.HandleDecide, "acme", bytes.NewBuffer(body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleDecide_NoChannelAvailable(t *testing.T) {
	h := NewMessageHandler(&stubTenants{cfg: okTenant()}, &stubDecision{err: services.ErrNoChannelAvailable}, &stubDelivery{}, zap.NewNop())

	rec := doRequest(h.HandleDecide, "acme", validBody(t))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleRoute_Success(t *testing.T) {
	outcome := &models.DeliveryOutcome{
		Success:           true,
		Channel:           models.ChannelSMS,
		ProviderMessageID: "SM123",
		Status:            models.StatusQueued,
	}
	h := NewMessageHandler(&stubTenants{cfg: okTenant()}, &stubDecision{decision: okDecision()}, &stubDelivery{outcome: outcome}, zap.NewNop())

	rec := doRequest(h.HandleRoute, "acme", validBody(t))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp RouteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Decision)
	require.NotNil(t, resp.Outcome)
	assert.True(t, resp.Outcome.Success)
	assert.Equal(t, "SM123", resp.Outcome.ProviderMessageID)
}

func TestHandleRoute_ExhaustionMapsToBadGateway(t *testing.T) {
	outcome := &models.DeliveryOutcome{
		Success:           false,
		Channel:           models.ChannelEmail,
		Status:            models.StatusFailed,
		FallbackAttempted: true,
		Error: &models.ErrorDetail{
			Kind:    "retryable",
			Channel: "email",
			Code:    "internal_server_error",
			Message: "upstream error",
		},
	}
	h := NewMessageHandler(&stubTenants{cfg: okTenant()}, &stubDecision{decision: okDecision()}, &stubDelivery{outcome: outcome}, zap.NewNop())

	rec := doRequest(h.HandleRoute, "acme", validBody(t))

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp RouteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Outcome.Error)
	assert.Equal(t, "retryable", resp.Outcome.Error.Kind)
}

func TestHandleRoute_CancelledMapsTo499(t *testing.T) {
	outcome := &models.DeliveryOutcome{
		Success: false,
		Channel: models.ChannelSMS,
		Status:  models.StatusFailed,
		Error:   &models.ErrorDetail{Kind: "cancelled", Message: "routing cancelled by caller"},
	}
	h := NewMessageHandler(&stubTenants{cfg: okTenant()}, &stubDecision{decision: okDecision()}, &stubDelivery{outcome: outcome}, zap.NewNop())

	rec := doRequest(h.HandleRoute, "acme", validBody(t))

	assert.Equal(t, utils.StatusClientClosedRequest, rec.Code)
}
