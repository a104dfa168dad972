package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coccinelle-ai/channel-engine/models"
	"github.com/coccinelle-ai/channel-engine/services/channels"
)

const defaultBaseURL = "https://api.resend.com"

// Config holds the email adapter settings shared across tenants.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Adapter sends email through the Resend API using the tenant's API key.
type Adapter struct {
	config     Config
	httpClient *http.Client
}

// New creates a new email adapter
func New(config Config) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	return &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Kind returns the channel this adapter serves
func (a *Adapter) Kind() models.ChannelKind {
	return models.ChannelEmail
}

// Send delivers one email through the tenant's provider account
func (a *Adapter) Send(ctx context.Context, req *channels.SendRequest) (*channels.Receipt, error) {
	if !req.Tenant.Email.Configured() {
		return nil, channels.NewProviderError(a.Kind(), "NOT_CONFIGURED", "email provider key missing", 0, false, nil)
	}

	subject := req.Message.Subject
	if subject == "" {
		subject = "Message from " + req.Tenant.Name
	}

	payload := sendEmailRequest{
		From:    req.Tenant.Sender.EmailFrom,
		To:      []string{req.To},
		Subject: subject,
		Text:    req.Message.Body,
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, channels.NewProviderError(a.Kind(), "MARSHAL_ERROR", "failed to marshal request", 0, false, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/emails", bytes.NewReader(reqBody))
	if err != nil {
		return nil, channels.NewProviderError(a.Kind(), "REQUEST_ERROR", "failed to create request", 0, false, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.Tenant.Email.APIKey)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, channels.NewProviderError(a.Kind(), "HTTP_ERROR", "email request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, channels.NewProviderError(a.Kind(), "READ_ERROR", "failed to read response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode >= 300 {
		return nil, a.classifyError(httpResp.StatusCode, respBody)
	}

	var sent sendEmailResponse
	if err := json.Unmarshal(respBody, &sent); err != nil {
		return nil, channels.NewProviderError(a.Kind(), "UNMARSHAL_ERROR", "failed to unmarshal response", httpResp.StatusCode, false, err)
	}

	// The API acknowledges acceptance into its queue, not delivery.
	return &channels.Receipt{
		ProviderMessageID: sent.ID,
		ProviderStatus:    "queued",
	}, nil
}

func (a *Adapter) classifyError(statusCode int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return channels.NewProviderError(a.Kind(), "UNKNOWN_ERROR", string(body), statusCode, statusCode >= 500, nil)
	}

	retryable := statusCode >= 500 || statusCode == http.StatusTooManyRequests

	return channels.NewProviderError(
		a.Kind(),
		errResp.Name,
		errResp.Message,
		statusCode,
		retryable,
		fmt.Errorf("email provider rejected request: %s", errResp.Name),
	)
}

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text,omitempty"`
	HTML    string   `json:"html,omitempty"`
}

type sendEmailResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}
