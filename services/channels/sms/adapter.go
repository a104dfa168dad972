package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coccinelle-ai/channel-engine/models"
	"github.com/coccinelle-ai/channel-engine/services/channels"
)

const defaultBaseURL = "https://api.twilio.com/2010-04-01"

// Config holds the SMS adapter settings shared across tenants. Credentials
// and sender identity come from the per-request tenant snapshot.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Adapter implements the channel adapter contract for SMS via the Twilio
// Messages API.
type Adapter struct {
	config     Config
	httpClient *http.Client
}

// New creates a new SMS adapter
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
	return models.ChannelSMS
}

// Send delivers one SMS through the tenant's Twilio account
func (a *Adapter) Send(ctx context.Context, req *channels.SendRequest) (*channels.Receipt, error) {
	if !req.Tenant.Telephony.Configured() {
		return nil, channels.NewProviderError(a.Kind(), "NOT_CONFIGURED", "telephony credentials missing", 0, false, nil)
	}

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("Body", req.Message.Body)

	// A messaging service SID takes precedence over a bare sender number.
	if sid := req.Tenant.Sender.MessagingServiceSID; sid != "" {
		form.Set("MessagingServiceSid", sid)
	} else {
		form.Set("From", req.Tenant.Sender.SMSNumber)
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", a.config.BaseURL, req.Tenant.Telephony.AccountSID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, channels.NewProviderError(a.Kind(), "REQUEST_ERROR", "failed to create request", 0, false, err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(req.Tenant.Telephony.AccountSID, req.Tenant.Telephony.AuthToken)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		// Timeouts and connection failures are transient from the
		// coordinator's point of view.
		return nil, channels.NewProviderError(a.Kind(), "HTTP_ERROR", "twilio request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, channels.NewProviderError(a.Kind(), "READ_ERROR", "failed to read response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode >= 300 {
		return nil, classifyError(a.Kind(), httpResp.StatusCode, respBody)
	}

	var msg messageResponse
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return nil, channels.NewProviderError(a.Kind(), "UNMARSHAL_ERROR", "failed to unmarshal response", httpResp.StatusCode, false, err)
	}

	return &channels.Receipt{
		ProviderMessageID: msg.SID,
		ProviderStatus:    msg.Status,
	}, nil
}

// classifyError maps a Twilio error response into retryable vs fatal.
// 429 and 5xx are transient; everything else in the 4xx range means the
// request itself is bad (invalid number, suspended account) and must not
// trigger fallback retries of the same payload through other numbers.
func classifyError(kind models.ChannelKind, statusCode int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return channels.NewProviderError(kind, "UNKNOWN_ERROR", string(body), statusCode, statusCode >= 500, nil)
	}

	retryable := statusCode >= 500 || statusCode == http.StatusTooManyRequests

	return channels.NewProviderError(
		kind,
		fmt.Sprintf("%d", errResp.Code),
		errResp.Message,
		statusCode,
		retryable,
		nil,
	)
}

// Twilio-specific response types

type messageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
	To     string `json:"to"`
	From   string `json:"from"`
}

type errorResponse struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}
