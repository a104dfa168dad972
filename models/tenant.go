package models

import (
	"time"

	"github.com/google/uuid"
)

// TelephonyCredentials is the credential pair for SMS/WhatsApp/Voice
// providers (Twilio-style account SID + auth token).
type TelephonyCredentials struct {
	AccountSID string `json:"account_sid" db:"account_sid"`
	AuthToken  string `json:"-" db:"auth_token"`
}

// Configured reports whether both halves of the pair are present.
func (c TelephonyCredentials) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != ""
}

// EmailCredentials is the API key for the email provider.
type EmailCredentials struct {
	APIKey string `json:"-" db:"api_key"`
}

// Configured reports whether the key is present.
func (c EmailCredentials) Configured() bool {
	return c.APIKey != ""
}

// SenderIdentity holds the per-tenant sender settings for each channel.
type SenderIdentity struct {
	SMSNumber           string `json:"sms_number" db:"sms_number"`                       // E.164 Twilio number
	MessagingServiceSID string `json:"messaging_service_sid" db:"messaging_service_sid"` // optional, preferred over SMSNumber when set
	WhatsAppNumber      string `json:"whatsapp_number" db:"whatsapp_number"`
	VoiceNumber         string `json:"voice_number" db:"voice_number"`
	EmailFrom           string `json:"email_from" db:"email_from"`
}

// TenantConfig is the read-only snapshot of a tenant's channel configuration
// consumed by the orchestrator. It is loaded once per routing call and
// treated as fixed for the duration of the call.
type TenantConfig struct {
	ID uuid.UUID `json:"id" db:"id"`

	// RoutingKey is the stable external identifier API callers use to
	// address the tenant (carried in the auth token).
	RoutingKey string `json:"routing_key" db:"routing_key"`

	Name      string               `json:"name" db:"name"`
	Telephony TelephonyCredentials `json:"telephony"`
	Email     EmailCredentials     `json:"email"`
	Sender    SenderIdentity       `json:"sender"`

	// DisabledChannels lists channels the tenant opted out of.
	DisabledChannels []ChannelKind `json:"disabled_channels,omitempty"`

	// CostOverrides and LatencyOverrides replace the default per-channel
	// estimates when set. Keys are ChannelKind values.
	CostOverrides    map[ChannelKind]Money `json:"cost_overrides,omitempty"`
	LatencyOverrides map[ChannelKind]int   `json:"latency_overrides,omitempty"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CredentialsFor reports whether the tenant holds valid credentials for the
// channel's provider.
func (t *TenantConfig) CredentialsFor(kind ChannelKind) bool {
	if kind.NeedsPhone() {
		return t.Telephony.Configured()
	}
	return t.Email.Configured()
}

// ChannelDisabled reports whether the tenant has switched the channel off.
func (t *TenantConfig) ChannelDisabled(kind ChannelKind) bool {
	for _, d := range t.DisabledChannels {
		if d == kind {
			return true
		}
	}
	return false
}

// HasAnyChannel reports whether at least one channel has provider
// credentials configured.
func (t *TenantConfig) HasAnyChannel() bool {
	for _, kind := range AllChannels() {
		if t.CredentialsFor(kind) && !t.ChannelDisabled(kind) {
			return true
		}
	}
	return false
}
