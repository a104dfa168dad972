package decision

import (
	"context"
	"testing"
	"time"

	"github.com/coccinelle-ai/channel-engine/models"
	"github.com/coccinelle-ai/channel-engine/services"
	"github.com/coccinelle-ai/channel-engine/services/availability"
	"github.com/coccinelle-ai/channel-engine/services/channels"
	"github.com/coccinelle-ai/channel-engine/services/costmodel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubAdapter satisfies the adapter contract without touching a provider
type stubAdapter struct {
	kind models.ChannelKind
}

func (s *stubAdapter) Kind() models.ChannelKind {
	return s.kind
}

func (s *stubAdapter) Send(context.Context, *channels.SendRequest) (*channels.Receipt, error) {
	return &channels.Receipt{ProviderMessageID: "stub", ProviderStatus: "sent"}, nil
}

func newTestEngine(t *testing.T, store availability.SuspensionStore) *Engine {
	t.Helper()

	registry := channels.NewRegistry()
	for _, kind := range models.AllChannels() {
		require.NoError(t, registry.Register(&stubAdapter{kind: kind}))
	}

	avail := availability.NewService(store, zap.NewNop())
	return NewEngine(DefaultWeights(), registry, avail, costmodel.Defaults(), zap.NewNop())
}

func fullTenant() *models.TenantConfig {
	return &models.TenantConfig{
		ID:         uuid.New(),
		RoutingKey: "acme",
		Name:       "Acme",
		Telephony:  models.TelephonyCredentials{AccountSID: "AC123", AuthToken: "token"},
		Email:      models.EmailCredentials{APIKey: "re_test_key"},
		Sender: models.SenderIdentity{
			SMSNumber: "+15550001111",
			EmailFrom: "no-reply@acme.test",
		},
	}
}

func bothContacts() *models.RecipientProfile {
	return &models.RecipientProfile{
		DisplayName: "Jordan Reyes",
		Phone:       "+15557654321",
		Email:       "jordan@example.com",
	}
}

func TestDecide_PhoneOnlyRecipientNeverGetsEmail(t *testing.T) {
	engine := newTestEngine(t, nil)
	tenant := fullTenant()
	recipient := &models.RecipientProfile{DisplayName: "Sam", Phone: "+15557654321"}
	msg := &models.Message{Body: "hello", Type: models.MessageGeneral}

	priorities := []models.RoutingPriority{
		models.PriorityLow, models.PriorityNormal, models.PriorityHigh, models.PriorityUrgent,
	}
	for _, priority := range priorities {
		t.Run(string(priority), func(t *testing.T) {
			decision, err := engine.Decide(context.Background(), tenant, recipient, priority, msg)
			require.NoError(t, err)

			assert.NotEqual(t, models.ChannelEmail, decision.Channel)
			for _, alt := range decision.Alternatives {
				assert.NotEqual(t, models.ChannelEmail, alt.Channel)
			}
		})
	}
}

func TestDecide_EmailOnlyRecipientGetsEmail(t *testing.T) {
	engine := newTestEngine(t, nil)
	tenant := fullTenant()
	recipient := &models.RecipientProfile{DisplayName: "Sam", Email: "sam@example.com"}
	msg := &models.Message{Body: "hello", Type: models.MessageGeneral}

	decision, err := engine.Decide(context.Background(), tenant, recipient, models.PriorityUrgent, msg)
	require.NoError(t, err)

	assert.Equal(t, models.ChannelEmail, decision.Channel)
	assert.Empty(t, decision.Alternatives)
}

func TestDecide_UrgentPicksLowestLatencyCandidate(t *testing.T) {
	engine := newTestEngine(t, nil)
	tenant := fullTenant()
	msg := &models.Message{Body: "server down", Type: models.MessageGeneral}

	decision, err := engine.Decide(context.Background(), tenant, bothContacts(), models.PriorityUrgent, msg)
	require.NoError(t, err)

	assert.Equal(t, models.ChannelVoice, decision.Channel)
	for _, alt := range decision.Alternatives {
		assert.LessOrEqual(t, decision.EstimatedLatencySeconds, alt.EstimatedLatencySeconds,
			"urgent choice must not be slower than %s", alt.Channel)
	}
}

func TestDecide_NormalPriorityPicksEmail(t *testing.T) {
	engine := newTestEngine(t, nil)
	tenant := fullTenant()
	msg := &models.Message{Body: "monthly summary", Type: models.MessageGeneral}

	decision, err := engine.Decide(context.Background(), tenant, bothContacts(), models.PriorityNormal, msg)
	require.NoError(t, err)

	assert.Equal(t, models.ChannelEmail, decision.Channel)
}

func TestDecide_MarketingContentPicksEmail(t *testing.T) {
	engine := newTestEngine(t, nil)
	tenant := fullTenant()
	msg := &models.Message{Subject: "Spring sale", Body: "20% off everything", Type: models.MessageMarketing}

	decision, err := engine.Decide(context.Background(), tenant, bothContacts(), models.PriorityLow, msg)
	require.NoError(t, err)

	assert.Equal(t, models.ChannelEmail, decision.Channel)
}

func TestDecide_PreferenceTipsTheDecision(t *testing.T) {
	engine := newTestEngine(t, nil)
	tenant := fullTenant()
	msg := &models.Message{Body: "hello", Type: models.MessageGeneral}

	recipient := bothContacts()
	preferred := models.ChannelWhatsApp
	recipient.PreferredChannel = &preferred

	decision, err := engine.Decide(context.Background(), tenant, recipient, models.PriorityNormal, msg)
	require.NoError(t, err)

	assert.Equal(t, models.ChannelWhatsApp, decision.Channel)
	assert.Contains(t, decision.Reason, "recipient preference")
}

func TestDecide_Deterministic(t *testing.T) {
	engine := newTestEngine(t, nil)
	tenant := fullTenant()
	msg := &models.Message{Body: "hello", Type: models.MessageTransactional}

	first, err := engine.Decide(context.Background(), tenant, bothContacts(), models.PriorityHigh, msg)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := engine.Decide(context.Background(), tenant, bothContacts(), models.PriorityHigh, msg)
		require.NoError(t, err)
		assert.Equal(t, first.Channel, again.Channel)
		require.Len(t, again.Alternatives, len(first.Alternatives))
		for j := range first.Alternatives {
			assert.Equal(t, first.Alternatives[j].Channel, again.Alternatives[j].Channel)
		}
	}
}

func TestDecide_NoCredentialsIsConfigurationError(t *testing.T) {
	engine := newTestEngine(t, nil)
	tenant := &models.TenantConfig{ID: uuid.New(), Name: "Empty"}
	msg := &models.Message{Body: "hello"}

	_, err := engine.Decide(context.Background(), tenant, bothContacts(), models.PriorityNormal, msg)
	require.Error(t, err)
	assert.True(t, services.IsConfigurationError(err))
}

func TestDecide_UnreachableRecipientIsNoChannelError(t *testing.T) {
	engine := newTestEngine(t, nil)
	tenant := fullTenant()
	tenant.Email = models.EmailCredentials{} // telephony only
	recipient := &models.RecipientProfile{DisplayName: "Sam", Email: "sam@example.com"}
	msg := &models.Message{Body: "hello"}

	_, err := engine.Decide(context.Background(), tenant, recipient, models.PriorityNormal, msg)
	require.Error(t, err)
	assert.True(t, services.IsNoChannelError(err))
	assert.False(t, services.IsConfigurationError(err))
}

func TestDecide_DisabledChannelNeverChosen(t *testing.T) {
	engine := newTestEngine(t, nil)
	tenant := fullTenant()
	tenant.DisabledChannels = []models.ChannelKind{models.ChannelVoice}
	msg := &models.Message{Body: "server down", Type: models.MessageGeneral}

	decision, err := engine.Decide(context.Background(), tenant, bothContacts(), models.PriorityUrgent, msg)
	require.NoError(t, err)

	assert.Equal(t, models.ChannelSMS, decision.Channel)
	for _, alt := range decision.Alternatives {
		assert.NotEqual(t, models.ChannelVoice, alt.Channel)
	}
}

func TestDecide_SuspendedChannelExcluded(t *testing.T) {
	store := availability.NewMemorySuspensionStore(time.Minute)
	engine := newTestEngine(t, store)
	tenant := fullTenant()
	msg := &models.Message{Body: "hello", Type: models.MessageGeneral}

	baseline, err := engine.Decide(context.Background(), tenant, bothContacts(), models.PriorityHigh, msg)
	require.NoError(t, err)
	require.Equal(t, models.ChannelSMS, baseline.Channel)

	require.NoError(t, store.Suspend(context.Background(), tenant.ID.String(), models.ChannelSMS))

	decision, err := engine.Decide(context.Background(), tenant, bothContacts(), models.PriorityHigh, msg)
	require.NoError(t, err)
	assert.NotEqual(t, models.ChannelSMS, decision.Channel)
	for _, alt := range decision.Alternatives {
		assert.NotEqual(t, models.ChannelSMS, alt.Channel)
	}
}

func TestDecide_AlternativesRankedByScore(t *testing.T) {
	engine := newTestEngine(t, nil)
	tenant := fullTenant()
	msg := &models.Message{Body: "hello", Type: models.MessageGeneral}

	decision, err := engine.Decide(context.Background(), tenant, bothContacts(), models.PriorityNormal, msg)
	require.NoError(t, err)

	require.Len(t, decision.Alternatives, 3)
	for i := 1; i < len(decision.Alternatives); i++ {
		assert.GreaterOrEqual(t, decision.Alternatives[i-1].Score, decision.Alternatives[i].Score)
	}

	order := decision.FallbackOrder()
	require.Len(t, order, 4)
	assert.Equal(t, decision.Channel, order[0])
}

func TestDecide_ConfidenceWithinRange(t *testing.T) {
	engine := newTestEngine(t, nil)
	tenant := fullTenant()
	msg := &models.Message{Body: "hello", Type: models.MessageGeneral}

	decision, err := engine.Decide(context.Background(), tenant, bothContacts(), models.PriorityNormal, msg)
	require.NoError(t, err)

	assert.Greater(t, decision.Confidence, 0.0)
	assert.LessOrEqual(t, decision.Confidence, 1.0)
}

func TestDecide_TenantCostOverrideShiftsEstimates(t *testing.T) {
	engine := newTestEngine(t, nil)
	tenant := fullTenant()
	tenant.CostOverrides = map[models.ChannelKind]models.Money{
		models.ChannelSMS: {Amount: 0.30, Currency: "USD"},
	}
	msg := &models.Message{Body: "hello", Type: models.MessageGeneral}

	decision, err := engine.Decide(context.Background(), tenant, bothContacts(), models.PriorityNormal, msg)
	require.NoError(t, err)

	for _, c := range append(decision.Alternatives, models.ChannelCandidate{
		Channel:       decision.Channel,
		EstimatedCost: decision.EstimatedCost,
	}) {
		if c.Channel == models.ChannelSMS {
			assert.InDelta(t, 0.30, c.EstimatedCost.Amount, 1e-9)
		}
	}
}
