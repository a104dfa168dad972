package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannelKind(t *testing.T) {
	for _, kind := range AllChannels() {
		parsed, err := ParseChannelKind(string(kind))
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}

	_, err := ParseChannelKind("pager")
	assert.Error(t, err)

	_, err = ParseChannelKind("")
	assert.Error(t, err)
}

func TestChannelKind_ContactRequirements(t *testing.T) {
	assert.True(t, ChannelSMS.NeedsPhone())
	assert.True(t, ChannelWhatsApp.NeedsPhone())
	assert.True(t, ChannelVoice.NeedsPhone())
	assert.False(t, ChannelEmail.NeedsPhone())

	assert.True(t, ChannelEmail.NeedsEmail())
	assert.False(t, ChannelSMS.NeedsEmail())
}

func TestAllChannels_StableOrder(t *testing.T) {
	assert.Equal(t, []ChannelKind{ChannelEmail, ChannelSMS, ChannelVoice, ChannelWhatsApp}, AllChannels())
}

func TestRoutingPriority_Valid(t *testing.T) {
	for _, p := range []RoutingPriority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent} {
		assert.True(t, p.Valid())
	}
	assert.False(t, RoutingPriority("asap").Valid())
}

func TestMessageType_Valid(t *testing.T) {
	for _, m := range []MessageType{MessageGeneral, MessageTransactional, MessageUrgent, MessageMarketing} {
		assert.True(t, m.Valid())
	}
	assert.False(t, MessageType("newsletter").Valid())
}
