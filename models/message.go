package models

// RecipientProfile holds the known contact points for a prospect. It is
// immutable for the duration of a routing call and owned by the caller.
type RecipientProfile struct {
	DisplayName      string       `json:"display_name"`
	Phone            string       `json:"phone,omitempty"` // E.164
	Email            string       `json:"email,omitempty"`
	PreferredChannel *ChannelKind `json:"preferred_channel,omitempty"`
}

// HasContactFor reports whether the recipient carries the contact point the
// channel needs.
func (r *RecipientProfile) HasContactFor(kind ChannelKind) bool {
	if kind.NeedsPhone() {
		return r.Phone != ""
	}
	if kind.NeedsEmail() {
		return r.Email != ""
	}
	return false
}

// ContactFor returns the raw contact point a channel should deliver to.
func (r *RecipientProfile) ContactFor(kind ChannelKind) string {
	if kind.NeedsPhone() {
		return r.Phone
	}
	return r.Email
}

// Prefers reports whether the recipient has declared kind as their
// preferred channel.
func (r *RecipientProfile) Prefers(kind ChannelKind) bool {
	return r.PreferredChannel != nil && *r.PreferredChannel == kind
}

// Message is the content to deliver. Immutable per routing call.
type Message struct {
	Subject      string            `json:"subject,omitempty"`
	Body         string            `json:"body"`
	Type         MessageType       `json:"message_type"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
}
