package sms

import (
	"context"
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
			Telephony: models.TelephonyCredentials{
				AccountSID: "AC123",
				AuthToken:  "secret",
			},
			Sender: models.SenderIdentity{
				SMSNumber: "+15550001111",
			},
		},
		To: "+15551234567",
		Message: &models.Message{
			Body: "hello there",
			Type: models.MessageTransactional,
		},
	}
}

func TestSMSAdapter_Send_Success(t *testing.T) {
	var gotPath, gotBody, gotContentType string
	var gotUser, gotPass string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotBody = r.PostForm.Encode()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM123","status":"queued","to":"+15551234567","from":"+15550001111"}`))
	}))
	defer server.Close()

	adapter := New(Config{BaseURL: server.URL})
	receipt, err := adapter.Send(context.Background(), sendRequest())
	require.NoError(t, err)

	assert.Equal(t, "SM123", receipt.ProviderMessageID)
	assert.Equal(t, "queued", receipt.ProviderStatus)
	assert.Equal(t, "/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "secret", gotPass)
	assert.Contains(t, gotBody, "From=%2B15550001111")
	assert.Contains(t, gotBody, "Body=hello+there")
}

func TestSMSAdapter_Send_MessagingServiceTakesPrecedence(t *testing.T) {
	var form string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm.Encode()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM124","status":"accepted"}`))
	}))
	defer server.Close()

	req := sendRequest()
	req.Tenant.Sender.MessagingServiceSID = "MG999"

	adapter := New(Config{BaseURL: server.URL})
	_, err := adapter.Send(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, form, "MessagingServiceSid=MG999")
	assert.NotContains(t, form, "From=")
}

func TestSMSAdapter_Send_MissingCredentials(t *testing.T) {
	adapter := New(Config{BaseURL: "http://unused.invalid"})
	req := sendRequest()
	req.Tenant.Telephony = models.TelephonyCredentials{}

	_, err := adapter.Send(context.Background(), req)
	require.Error(t, err)

	var provErr *channels.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "NOT_CONFIGURED", provErr.Code)
	assert.False(t, provErr.Retryable)
}

func TestSMSAdapter_Send_ErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantCode   string
		retryable  bool
	}{
		{
			name:       "invalid number is fatal",
			statusCode: http.StatusBadRequest,
			body:       `{"code":21211,"message":"Invalid 'To' Phone Number","status":400}`,
			wantCode:   "21211",
			retryable:  false,
		},
		{
			name:       "rate limit is retryable",
			statusCode: http.StatusTooManyRequests,
			body:       `{"code":20429,"message":"Too Many Requests","status":429}`,
			wantCode:   "20429",
			retryable:  true,
		},
		{
			name:       "server error is retryable",
			statusCode: http.StatusInternalServerError,
			body:       `{"code":20500,"message":"Internal Server Error","status":500}`,
			wantCode:   "20500",
			retryable:  true,
		},
		{
			name:       "non-json server error is retryable",
			statusCode: http.StatusBadGateway,
			body:       `upstream timed out`,
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
			assert.Equal(t, tt.statusCode, provErr.StatusCode)
			assert.Equal(t, models.ChannelSMS, provErr.Channel)
		})
	}
}

func TestSMSAdapter_Send_ConnectionFailureIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	adapter := New(Config{BaseURL: server.URL})
	_, err := adapter.Send(context.Background(), sendRequest())
	require.Error(t, err)

	var provErr *channels.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "HTTP_ERROR", provErr.Code)
	assert.True(t, provErr.Retryable)
}
