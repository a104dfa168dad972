package costmodel

import (
	"github.com/coccinelle-ai/channel-engine/models"
)

// Estimate is the pure per-channel cost and latency projection consulted by
// the decision engine.
type Estimate struct {
	Cost           models.Money `json:"cost"`
	LatencySeconds int          `json:"latency_seconds"`
}

// Model estimates monetary cost and expected delivery latency per channel,
// tenant, and message. Defaults hold the relative ordering contract
// (email <= sms <= whatsapp <= voice per-message cost; voice lowest latency
// when a live call can be placed, async channels faster than queued email);
// exact numbers are tenant-overridable configuration.
type Model struct {
	defaultCosts     map[models.ChannelKind]models.Money
	defaultLatencies map[models.ChannelKind]int
}

// Defaults returns the built-in per-unit estimates. Derived from typical
// provider list prices in USD; tenants on other providers override them.
func Defaults() *Model {
	return &Model{
		defaultCosts: map[models.ChannelKind]models.Money{
			models.ChannelEmail:    {Amount: 0.0006, Currency: "USD"},
			models.ChannelSMS:      {Amount: 0.0450, Currency: "USD"},
			models.ChannelWhatsApp: {Amount: 0.0500, Currency: "USD"},
			models.ChannelVoice:    {Amount: 0.0900, Currency: "USD"},
		},
		defaultLatencies: map[models.ChannelKind]int{
			models.ChannelVoice:    8,
			models.ChannelSMS:      10,
			models.ChannelWhatsApp: 30,
			models.ChannelEmail:    120,
		},
	}
}

// EstimateChannel projects cost and latency for one channel. Tenant
// overrides take precedence over the defaults; message shape nudges the
// projection (long bodies split SMS segments, marketing email is queued
// behind transactional traffic).
func (m *Model) EstimateChannel(kind models.ChannelKind, tenant *models.TenantConfig, msg *models.Message) Estimate {
	cost := m.defaultCosts[kind]
	latency := m.defaultLatencies[kind]

	if tenant != nil {
		if override, ok := tenant.CostOverrides[kind]; ok {
			cost = override
		}
		if override, ok := tenant.LatencyOverrides[kind]; ok {
			latency = override
		}
	}

	if msg != nil {
		if kind == models.ChannelSMS && len(msg.Body) > 160 {
			segments := (len(msg.Body) + 152) / 153
			cost.Amount *= float64(segments)
		}
		if kind == models.ChannelEmail && msg.Type == models.MessageMarketing {
			latency *= 2
		}
	}

	return Estimate{Cost: cost, LatencySeconds: latency}
}
