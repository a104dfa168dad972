package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coccinelle-ai/channel-engine/models"
	"github.com/coccinelle-ai/channel-engine/services/channels"
)

func sendRequest() *channels.SendRequest {
	return &channels.SendRequest{
		Tenant: &models.TenantConfig{
			Name: "Acme",
			Email: models.EmailCredentials{
				APIKey: "re_test_key",
			},
			Sender: models.SenderIdentity{
				EmailFrom: "noreply@acme.example",
			},
		},
		To: "jane@example.com",
		Message: &models.Message{
			Subject: "Your receipt",
			Body:    "Thanks for your order.",
			Type:    models.MessageTransactional,
		},
	}
}

func TestEmailAdapter_Send_Success(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"em_abc123"}`))
	}))
	defer server.Close()

	adapter := New(Config{BaseURL: server.URL})
	receipt, err := adapter.Send(context.Background(), sendRequest())
	require.NoError(t, err)

	assert.Equal(t, "em_abc123", receipt.ProviderMessageID)
	assert.Equal(t, "queued", receipt.ProviderStatus)
	assert.Equal(t, "Bearer re_test_key", gotAuth)
	assert.Equal(t, "noreply@acme.example", gotPayload["from"])
	assert.Equal(t, []interface{}{"jane@example.com"}, gotPayload["to"])
	assert.Equal(t, "Your receipt", gotPayload["subject"])
	assert.Equal(t, "Thanks for your order.", gotPayload["text"])
}

func TestEmailAdapter_Send_DefaultSubject(t *testing.T) {
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte(`{"id":"em_abc124"}`))
	}))
	defer server.Close()

	req := sendRequest()
	req.Message.Subject = ""

	adapter := New(Config{BaseURL: server.URL})
	_, err := adapter.Send(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Message from Acme", gotPayload["subject"])
}

func TestEmailAdapter_Send_MissingAPIKey(t *testing.T) {
	adapter := New(Config{BaseURL: "http://unused.invalid"})
	req := sendRequest()
	req.Tenant.Email.APIKey = ""

	_, err := adapter.Send(context.Background(), req)
	require.Error(t, err)

	var provErr *channels.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "NOT_CONFIGURED", provErr.Code)
	assert.False(t, provErr.Retryable)
}

func TestEmailAdapter_Send_ErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantCode   string
		retryable  bool
	}{
		{
			name:       "invalid recipient is fatal",
			statusCode: http.StatusUnprocessableEntity,
			body:       `{"name":"validation_error","message":"Invalid to address"}`,
			wantCode:   "validation_error",
			retryable:  false,
		},
		{
			name:       "rate limit is retryable",
			statusCode: http.StatusTooManyRequests,
			body:       `{"name":"rate_limit_exceeded","message":"Too many requests"}`,
			wantCode:   "rate_limit_exceeded",
			retryable:  true,
		},
		{
			name:       "server error is retryable",
			statusCode: http.StatusInternalServerError,
			body:       `{"name":"internal_server_error","message":"Something went wrong"}`,
			wantCode:   "internal_server_error",
			retryable:  true,
		},
		{
			name:       "non-json error body",
			statusCode: http.StatusServiceUnavailable,
			body:       `service unavailable`,
			wantCode:   "UNKNOWN_ERROR",
			retryable:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			adapter := New(Config{BaseURL: server.URL})
			_, err := adapter.Send(context.Background(), sendRequest())
			require.Error(t, err)

			var provErr *channels.ProviderError
			require.True(t, errors.As(err, &provErr))
			assert.Equal(t, tt.wantCode, provErr.Code)
			assert.Equal(t, tt.retryable, provErr.Retryable)
			assert.Equal(t, models.ChannelEmail, provErr.Channel)
		})
	}
}
