package models

import "fmt"

// ChannelKind identifies a communication channel. The set is closed: adding
// a channel means adding an adapter and an availability rule, not changing
// the decision contract.
type ChannelKind string

const (
	ChannelEmail    ChannelKind = "email"
	ChannelSMS      ChannelKind = "sms"
	ChannelVoice    ChannelKind = "voice"
	ChannelWhatsApp ChannelKind = "whatsapp"
)

// AllChannels returns every known channel in stable lexical order. The
// ordering doubles as the final deterministic tie-break during scoring.
func AllChannels() []ChannelKind {
	return []ChannelKind{ChannelEmail, ChannelSMS, ChannelVoice, ChannelWhatsApp}
}

// Valid reports whether the kind is a member of the closed set.
func (k ChannelKind) Valid() bool {
	switch k {
	case ChannelEmail, ChannelSMS, ChannelVoice, ChannelWhatsApp:
		return true
	}
	return false
}

// NeedsPhone reports whether the channel requires a phone contact point.
func (k ChannelKind) NeedsPhone() bool {
	return k == ChannelSMS || k == ChannelWhatsApp || k == ChannelVoice
}

// NeedsEmail reports whether the channel requires an email contact point.
func (k ChannelKind) NeedsEmail() bool {
	return k == ChannelEmail
}

// ParseChannelKind converts a string into a ChannelKind.
func ParseChannelKind(s string) (ChannelKind, error) {
	k := ChannelKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown channel kind %q", s)
	}
	return k, nil
}

// RoutingPriority drives weighting in the decision engine.
type RoutingPriority string

const (
	PriorityLow    RoutingPriority = "low"
	PriorityNormal RoutingPriority = "normal"
	PriorityHigh   RoutingPriority = "high"
	PriorityUrgent RoutingPriority = "urgent"
)

// Valid reports whether the priority is a known value.
func (p RoutingPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// MessageType categorizes the content being delivered.
type MessageType string

const (
	MessageGeneral       MessageType = "general"
	MessageTransactional MessageType = "transactional"
	MessageUrgent        MessageType = "urgent"
	MessageMarketing     MessageType = "marketing"
)

// Valid reports whether the message type is a known value.
func (m MessageType) Valid() bool {
	switch m {
	case MessageGeneral, MessageTransactional, MessageUrgent, MessageMarketing:
		return true
	}
	return false
}
