package models

// Money is a monetary estimate with its currency code.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// ChannelCandidate is an ephemeral evaluation of one channel for one routing
// call. Candidates are computed fresh per call and never persisted.
type ChannelCandidate struct {
	Channel                 ChannelKind `json:"channel"`
	EstimatedCost           Money       `json:"estimated_cost"`
	EstimatedLatencySeconds int         `json:"estimated_latency_seconds"`
	Score                   float64     `json:"score"`
	Reason                  string      `json:"reason,omitempty"`
}

// ChannelDecision is the immutable result of one decision call.
//
// Alternatives is exactly the candidate set minus the chosen channel, ordered
// by descending score. Channels that failed availability are excluded from
// candidates entirely, never scored at zero.
type ChannelDecision struct {
	Channel                 ChannelKind        `json:"chosen_channel"`
	Reason                  string             `json:"reason"`
	Confidence              float64            `json:"confidence"` // 0..1
	EstimatedCost           Money              `json:"estimated_cost"`
	EstimatedLatencySeconds int                `json:"estimated_delivery_time"`
	Alternatives            []ChannelCandidate `json:"alternatives"`
}

// FallbackOrder returns the full attempt sequence: the chosen channel
// followed by the ranked alternatives. Each kind appears at most once.
func (d *ChannelDecision) FallbackOrder() []ChannelKind {
	order := make([]ChannelKind, 0, len(d.Alternatives)+1)
	order = append(order, d.Channel)
	for _, alt := range d.Alternatives {
		order = append(order, alt.Channel)
	}
	return order
}

// DeliveryStatus is the send-time status of a delivery attempt. Eventual
// delivery confirmation arrives later through provider webhooks and is
// outside this value's contract.
type DeliveryStatus string

const (
	StatusQueued DeliveryStatus = "queued"
	StatusSent   DeliveryStatus = "sent"
	StatusFailed DeliveryStatus = "failed"
)

// ErrorDetail carries the classified failure attached to an outcome.
type ErrorDetail struct {
	Kind    string `json:"kind"` // retryable, fatal, cancelled
	Channel string `json:"channel,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// DeliveryOutcome is the single terminal value returned from one routing
// call. Retries are fully contained within the call; no retry state survives.
type DeliveryOutcome struct {
	Success           bool           `json:"success"`
	Channel           ChannelKind    `json:"channel"`
	ProviderMessageID string         `json:"provider_message_id,omitempty"`
	Status            DeliveryStatus `json:"status"`
	FallbackAttempted bool           `json:"fallback_attempted"`
	FallbackChannel   *ChannelKind   `json:"fallback_channel,omitempty"`
	Error             *ErrorDetail   `json:"error,omitempty"`
}
