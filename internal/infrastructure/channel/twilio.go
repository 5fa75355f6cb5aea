package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	appErrors "notifier/internal/pkg/errors"
	"strconv"
	"strings"
)

const (
	twilioProvider       = "twilio"
	defaultTwilioBaseURL = "https://api.twilio.com/2010-04-01"
)

// Twilio error codes that mean the destination can never be reached through Twilio.
var twilioTerminalCodes = map[int]struct{}{
	21211: {}, // invalid To number
	21408: {}, // region not enabled
	21610: {}, // recipient unsubscribed
	21614: {}, // not a mobile number
}

// TwilioConfig configures the Twilio SMS adapter.
type TwilioConfig struct {
	AccountSID          string
	AuthToken           string
	FromNumber          string
	MessagingServiceSID string // takes precedence over FromNumber when set
	BaseURL             string
	HTTPClient          *http.Client
}

// TwilioSender sends SMS through the Twilio Messages REST API.
type TwilioSender struct {
	cfg        TwilioConfig
	httpClient *http.Client
}

// NewTwilioSender validates the credentials and builds the adapter.
func NewTwilioSender(cfg TwilioConfig) (*TwilioSender, error) {
	if cfg.AccountSID == "" {
		return nil, fmt.Errorf("TWILIO_ACCOUNT_SID not set")
	}
	if cfg.AuthToken == "" {
		return nil, fmt.Errorf("TWILIO_AUTH_TOKEN not set")
	}
	if cfg.FromNumber == "" && cfg.MessagingServiceSID == "" {
		return nil, fmt.Errorf("TWILIO_FROM_NUMBER or TWILIO_MESSAGING_SERVICE_SID must be set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTwilioBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &TwilioSender{cfg: cfg, httpClient: newHTTPClient(cfg.HTTPClient)}, nil
}

type twilioMessage struct {
	SID string `json:"sid"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send posts one SMS. subject is ignored.
func (t *TwilioSender) Send(ctx context.Context, to string, _ *string, body string) (string, error) {
	apiURL := fmt.Sprintf("%s/Accounts/%s/Messages.json", t.cfg.BaseURL, t.cfg.AccountSID)

	formData := url.Values{}
	formData.Set("To", to)
	formData.Set("Body", body)
	if t.cfg.MessagingServiceSID != "" {
		formData.Set("MessagingServiceSid", t.cfg.MessagingServiceSID)
	} else {
		formData.Set("From", t.cfg.FromNumber)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return "", appErrors.NewTerminal(twilioProvider, "", fmt.Errorf("failed to create request: %w", err))
	}
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", appErrors.NewTransient(twilioProvider, "", fmt.Errorf("twilio request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", classifyTwilio(resp)
	}

	var msg twilioMessage
	// The message was accepted even if the body cannot be decoded; retrying would send it twice.
	_ = json.NewDecoder(resp.Body).Decode(&msg)
	return msg.SID, nil
}

func classifyTwilio(resp *http.Response) error {
	raw := readErrorBody(resp.Body)
	var te twilioError
	_ = json.Unmarshal([]byte(raw), &te)

	code := ""
	if te.Code != 0 {
		code = strconv.Itoa(te.Code)
	}
	msg := te.Message
	if msg == "" {
		msg = raw
	}
	err := fmt.Errorf("twilio error %s: %s", resp.Status, msg)

	if _, ok := twilioTerminalCodes[te.Code]; ok {
		return appErrors.NewTerminal(twilioProvider, code, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return appErrors.NewTransient(twilioProvider, code, err)
	}
	return appErrors.NewTerminal(twilioProvider, code, err)
}
