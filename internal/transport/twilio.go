package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dipwatch/dipwatch/pkg/config"
	"github.com/dipwatch/dipwatch/pkg/httputil"
	"github.com/dipwatch/dipwatch/pkg/logger"
)

// TwilioMessenger sends SMS through the Twilio Messages API.
type TwilioMessenger struct {
	httpClient *httputil.Client
	config     config.TwilioConfig
	logger     *logger.Logger
}

func NewTwilioMessenger(cfg config.TwilioConfig, httpClient *httputil.Client, log *logger.Logger) *TwilioMessenger {
	return &TwilioMessenger{
		httpClient: httpClient,
		config:     cfg,
		logger:     log.WithField("component", "twilio"),
	}
}

// twilioResponse is the subset of the Messages API response we read.
type twilioResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Send posts the message and returns the Twilio message SID. The body
// is truncated to the SMS segment limit before sending.
func (m *TwilioMessenger) Send(ctx context.Context, to, body string) (string, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(m.config.BaseURL, "/"), m.config.AccountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", m.config.FromNumber)
	form.Set("Body", Truncate(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(m.config.AccountSID, m.config.AuthToken)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read twilio response: %w", err)
	}

	var parsed twilioResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse twilio response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("twilio rejected message (status %d): %s", resp.StatusCode, parsed.Message)
	}

	m.logger.WithFields(map[string]interface{}{
		"to":     to,
		"sid":    parsed.SID,
		"status": parsed.Status,
	}).Info("SMS accepted by Twilio")

	return parsed.SID, nil
}
