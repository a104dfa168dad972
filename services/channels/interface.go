package channels

import (
	"context"

	"github.com/coccinelle-ai/channel-engine/models"
)

// Adapter is the uniform send contract for one communication channel. It
// wraps a provider client and never contains routing logic; the concrete
// adapter classifies its own failures into retryable vs fatal before the
// error reaches the delivery coordinator.
type Adapter interface {
	// Kind returns the channel this adapter serves.
	Kind() models.ChannelKind

	// Send delivers one message to one contact point. Errors must be
	// *ProviderError so the coordinator can decide whether to fall back.
	Send(ctx context.Context, req *SendRequest) (*Receipt, error)
}

// SendRequest carries everything an adapter needs for a single attempt.
type SendRequest struct {
	// Tenant supplies provider credentials and sender identity.
	Tenant *models.TenantConfig

	// To is the raw contact point (E.164 phone or email address).
	To string

	// RecipientName is used by channels that address the recipient by name.
	RecipientName string

	Message *models.Message
}

// Receipt is the provider's acknowledgment of a send attempt. It reflects
// the status known at send time only; delivery confirmations arrive later
// via provider webhooks.
type Receipt struct {
	ProviderMessageID string
	ProviderStatus    string
}

// ProviderError represents a classified failure from a channel provider.
type ProviderError struct {
	// Channel that produced the error.
	Channel models.ChannelKind

	// Code is the provider's error code or a short classification label.
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Retryable indicates whether the coordinator may fall back to the
	// next ranked channel. Fatal errors (invalid recipient, content
	// rejected, account suspended) must never trigger fallback.
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(channel models.ChannelKind, code, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Channel:    channel,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable checks if an error is a retryable provider error
func IsRetryable(err error) bool {
	if provErr, ok := err.(*ProviderError); ok {
		return provErr.Retryable
	}
	return false
}
