package decision

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/coccinelle-ai/channel-engine/models"
	"github.com/coccinelle-ai/channel-engine/services/availability"
	"github.com/coccinelle-ai/channel-engine/services/channels"
	"github.com/coccinelle-ai/channel-engine/services/costmodel"
	"go.uber.org/zap"
)

// Weights controls the relative influence of each scoring term. Defaults
// favor priority fit and the recipient's declared preference.
type Weights struct {
	PriorityFit float64 `json:"priority_fit"`
	TypeFit     float64 `json:"type_fit"`
	Cost        float64 `json:"cost"`
	Latency     float64 `json:"latency"`
	Preference  float64 `json:"preference"`
}

// DefaultWeights returns the standard weighting
func DefaultWeights() Weights {
	return Weights{
		PriorityFit: 0.40,
		TypeFit:     0.15,
		Cost:        0.10,
		Latency:     0.15,
		Preference:  0.20,
	}
}

// Engine scores available channels against message priority, type, and
// recipient data, picks the best, and produces a ranked fallback order.
// Decide is a pure function of its inputs; decisions are recomputed on every
// call so they always reflect current availability.
type Engine struct {
	weights      Weights
	registry     *channels.Registry
	availability *availability.Service
	costs        *costmodel.Model
	logger       *zap.Logger
}

// NewEngine creates a decision engine
func NewEngine(weights Weights, registry *channels.Registry, avail *availability.Service, costs *costmodel.Model, logger *zap.Logger) *Engine {
	return &Engine{
		weights:      weights,
		registry:     registry,
		availability: avail,
		costs:        costs,
		logger:       logger,
	}
}

// scored pairs a candidate with the inputs its tie-breaks need.
type scored struct {
	candidate models.ChannelCandidate
	preferred bool
}

// Decide evaluates every registered channel for the tenant, recipient, and
// message, and returns the chosen channel with the ranked alternatives.
//
// Channels that fail availability are excluded from the candidate set
// entirely, never scored. An empty candidate set is an error, reported,
// never silently defaulted.
func (e *Engine) Decide(ctx context.Context, tenant *models.TenantConfig, recipient *models.RecipientProfile, priority models.RoutingPriority, msg *models.Message) (*models.ChannelDecision, error) {
	kinds := e.registry.Kinds()

	configured := false
	var estimates []scored
	for _, kind := range kinds {
		if tenant.CredentialsFor(kind) && !tenant.ChannelDisabled(kind) {
			configured = true
		}

		result := e.availability.Available(ctx, tenant, recipient, kind)
		if !result.OK {
			e.logger.Debug("channel filtered out",
				zap.String("channel", string(kind)),
				zap.String("reason", result.Reason))
			continue
		}

		est := e.costs.EstimateChannel(kind, tenant, msg)
		estimates = append(estimates, scored{
			candidate: models.ChannelCandidate{
				Channel:                 kind,
				EstimatedCost:           est.Cost,
				EstimatedLatencySeconds: est.LatencySeconds,
			},
			preferred: recipient.Prefers(kind),
		})
	}

	if len(estimates) == 0 {
		if !configured {
			return nil, servicesErrNotConfigured(tenant)
		}
		return nil, servicesErrNoChannel(tenant, recipient)
	}

	e.score(estimates, recipient, priority, msg)
	e.rank(estimates)

	winner := estimates[0]
	alternatives := make([]models.ChannelCandidate, 0, len(estimates)-1)
	for _, s := range estimates[1:] {
		alternatives = append(alternatives, s.candidate)
	}

	decision := &models.ChannelDecision{
		Channel:                 winner.candidate.Channel,
		Reason:                  e.buildReason(winner.candidate.Channel, recipient, priority, msg),
		Confidence:              e.confidence(winner, recipient),
		EstimatedCost:           winner.candidate.EstimatedCost,
		EstimatedLatencySeconds: winner.candidate.EstimatedLatencySeconds,
		Alternatives:            alternatives,
	}

	e.logger.Info("channel decided",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("channel", string(decision.Channel)),
		zap.Float64("confidence", decision.Confidence),
		zap.Int("alternatives", len(decision.Alternatives)))

	return decision, nil
}

// score fills in candidate scores in place. Cost and latency are normalized
// within the candidate set so the weights express relative, not absolute,
// influence.
func (e *Engine) score(estimates []scored, recipient *models.RecipientProfile, priority models.RoutingPriority, msg *models.Message) {
	minCost, maxCost := estimates[0].candidate.EstimatedCost.Amount, estimates[0].candidate.EstimatedCost.Amount
	minLat, maxLat := estimates[0].candidate.EstimatedLatencySeconds, estimates[0].candidate.EstimatedLatencySeconds
	for _, s := range estimates[1:] {
		c := s.candidate
		if c.EstimatedCost.Amount < minCost {
			minCost = c.EstimatedCost.Amount
		}
		if c.EstimatedCost.Amount > maxCost {
			maxCost = c.EstimatedCost.Amount
		}
		if c.EstimatedLatencySeconds < minLat {
			minLat = c.EstimatedLatencySeconds
		}
		if c.EstimatedLatencySeconds > maxLat {
			maxLat = c.EstimatedLatencySeconds
		}
	}

	for i := range estimates {
		c := &estimates[i].candidate

		normCost := 0.0
		if maxCost > minCost {
			normCost = (c.EstimatedCost.Amount - minCost) / (maxCost - minCost)
		}
		normLat := 0.0
		if maxLat > minLat {
			normLat = float64(c.EstimatedLatencySeconds-minLat) / float64(maxLat-minLat)
		}

		score := e.weights.PriorityFit*priorityFit(c.Channel, priority) +
			e.weights.TypeFit*typeFit(c.Channel, msg) +
			e.weights.Cost*(1-normCost) +
			e.weights.Latency*(1-normLat)
		if estimates[i].preferred {
			score += e.weights.Preference
		}

		c.Score = score
		c.Reason = fitLabel(c.Channel, priority, msg.Type)
	}
}

// rank orders by descending score with the deterministic tie-break chain:
// declared preference, lower cost, lower latency, lexical channel order.
func (e *Engine) rank(estimates []scored) {
	sort.SliceStable(estimates, func(i, j int) bool {
		a, b := estimates[i], estimates[j]
		if a.candidate.Score != b.candidate.Score {
			return a.candidate.Score > b.candidate.Score
		}
		if a.preferred != b.preferred {
			return a.preferred
		}
		if a.candidate.EstimatedCost.Amount != b.candidate.EstimatedCost.Amount {
			return a.candidate.EstimatedCost.Amount < b.candidate.EstimatedCost.Amount
		}
		if a.candidate.EstimatedLatencySeconds != b.candidate.EstimatedLatencySeconds {
			return a.candidate.EstimatedLatencySeconds < b.candidate.EstimatedLatencySeconds
		}
		return a.candidate.Channel < b.candidate.Channel
	})
}

// confidence normalizes the winning score against the maximum achievable
// score for this recipient. The preference term only counts toward the
// ceiling when a preference was actually declared.
func (e *Engine) confidence(winner scored, recipient *models.RecipientProfile) float64 {
	max := e.weights.PriorityFit + e.weights.TypeFit + e.weights.Cost + e.weights.Latency
	if recipient.PreferredChannel != nil {
		max += e.weights.Preference
	}
	if max <= 0 {
		return 0
	}
	conf := winner.candidate.Score / max
	if conf < 0 {
		return 0
	}
	if conf > 1 {
		return 1
	}
	return conf
}

// buildReason produces the short human-readable justification attached to
// the decision.
func (e *Engine) buildReason(chosen models.ChannelKind, recipient *models.RecipientProfile, priority models.RoutingPriority, msg *models.Message) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%s priority", priority))
	if recipient.Prefers(chosen) {
		parts = append(parts, "recipient preference")
	}
	if chosen.NeedsPhone() && recipient.Phone != "" {
		parts = append(parts, "phone available")
	}
	if chosen.NeedsEmail() && recipient.Email != "" {
		parts = append(parts, "email available")
	}
	if msg.Type == models.MessageMarketing && chosen == models.ChannelEmail {
		parts = append(parts, "marketing content")
	}
	return fmt.Sprintf("%s -> %s preferred", strings.Join(parts, " + "), chosen)
}

// priorityFit rates how well a channel serves a routing priority, in [0,1].
// Urgent work wants live or near-live channels; low-priority work wants the
// cheap asynchronous ones.
func priorityFit(kind models.ChannelKind, priority models.RoutingPriority) float64 {
	switch priority {
	case models.PriorityUrgent:
		switch kind {
		case models.ChannelVoice:
			return 1.0
		case models.ChannelSMS:
			return 0.85
		case models.ChannelWhatsApp:
			return 0.6
		case models.ChannelEmail:
			return 0.1
		}
	case models.PriorityHigh:
		switch kind {
		case models.ChannelSMS:
			return 0.9
		case models.ChannelVoice:
			return 0.8
		case models.ChannelWhatsApp:
			return 0.7
		case models.ChannelEmail:
			return 0.4
		}
	case models.PriorityNormal:
		switch kind {
		case models.ChannelEmail:
			return 1.0
		case models.ChannelSMS:
			return 0.7
		case models.ChannelWhatsApp:
			return 0.6
		case models.ChannelVoice:
			return 0.2
		}
	case models.PriorityLow:
		switch kind {
		case models.ChannelEmail:
			return 1.0
		case models.ChannelWhatsApp:
			return 0.5
		case models.ChannelSMS:
			return 0.3
		case models.ChannelVoice:
			return 0.1
		}
	}
	return 0.5
}

// typeFit rates how well a channel carries a message type, in [0,1]. Long
// bodies degrade SMS fit since they split into costly segments.
func typeFit(kind models.ChannelKind, msg *models.Message) float64 {
	fit := 0.5
	switch msg.Type {
	case models.MessageTransactional:
		switch kind {
		case models.ChannelSMS:
			fit = 0.9
		case models.ChannelEmail:
			fit = 0.8
		case models.ChannelWhatsApp:
			fit = 0.7
		case models.ChannelVoice:
			fit = 0.4
		}
	case models.MessageMarketing:
		switch kind {
		case models.ChannelEmail:
			fit = 1.0
		case models.ChannelWhatsApp:
			fit = 0.5
		case models.ChannelSMS:
			fit = 0.1
		case models.ChannelVoice:
			fit = 0.0
		}
	case models.MessageUrgent:
		switch kind {
		case models.ChannelVoice:
			fit = 0.9
		case models.ChannelSMS:
			fit = 0.9
		case models.ChannelWhatsApp:
			fit = 0.7
		case models.ChannelEmail:
			fit = 0.3
		}
	}

	if kind == models.ChannelSMS && len(msg.Body) > 160 {
		fit -= 0.2
		if fit < 0 {
			fit = 0
		}
	}
	return fit
}

// fitLabel is the one-line per-candidate explanation carried on
// alternatives.
func fitLabel(kind models.ChannelKind, priority models.RoutingPriority, msgType models.MessageType) string {
	switch {
	case priority == models.PriorityUrgent && kind == models.ChannelVoice:
		return "live call fastest for urgent messages"
	case priority == models.PriorityUrgent && kind == models.ChannelSMS:
		return "sms near-instant for urgent messages"
	case msgType == models.MessageMarketing && kind == models.ChannelEmail:
		return "email ideal for marketing content"
	case kind == models.ChannelEmail:
		return "email cost-effective"
	case kind == models.ChannelWhatsApp:
		return "whatsapp affordable rich messaging"
	case kind == models.ChannelVoice:
		return "voice highest-touch channel"
	default:
		return "sms reliable default"
	}
}
