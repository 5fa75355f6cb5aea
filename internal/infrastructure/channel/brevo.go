package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	appErrors "notifier/internal/pkg/errors"
	"strconv"
	"strings"
)

const (
	brevoProvider       = "brevo"
	defaultBrevoBaseURL = "https://api.brevo.com/v3"
)

// BrevoConfig configures the Brevo transactional email adapter.
type BrevoConfig struct {
	APIKey      string
	SenderEmail string
	SenderName  string
	BaseURL     string
	HTTPClient  *http.Client
}

// BrevoSender sends transactional email through the Brevo SMTP API.
type BrevoSender struct {
	cfg        BrevoConfig
	httpClient *http.Client
}

// NewBrevoSender validates the credentials and builds the adapter.
func NewBrevoSender(cfg BrevoConfig) (*BrevoSender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("BREVO_API_KEY not set")
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("BREVO_SENDER_EMAIL not set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBrevoBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &BrevoSender{cfg: cfg, httpClient: newHTTPClient(cfg.HTTPClient)}, nil
}

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoEmail struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

type brevoResponse struct {
	MessageID string `json:"messageId"`
}

type brevoError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Send posts one email. A nil subject is sent as an empty subject.
func (b *BrevoSender) Send(ctx context.Context, to string, subject *string, body string) (string, error) {
	payload := brevoEmail{
		Sender:      brevoContact{Email: b.cfg.SenderEmail, Name: b.cfg.SenderName},
		To:          []brevoContact{{Email: to}},
		HTMLContent: body,
	}
	if subject != nil {
		payload.Subject = *subject
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", appErrors.NewTerminal(brevoProvider, "", fmt.Errorf("failed to marshal email: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.BaseURL+"/smtp/email", bytes.NewReader(raw))
	if err != nil {
		return "", appErrors.NewTerminal(brevoProvider, "", fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("api-key", b.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", appErrors.NewTransient(brevoProvider, "", fmt.Errorf("brevo request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", classifyBrevo(resp)
	}

	var out brevoResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return out.MessageID, nil
}

func classifyBrevo(resp *http.Response) error {
	raw := readErrorBody(resp.Body)
	var be brevoError
	_ = json.Unmarshal([]byte(raw), &be)
	msg := be.Message
	if msg == "" {
		msg = raw
	}
	code := be.Code
	if code == "" {
		code = strconv.Itoa(resp.StatusCode)
	}
	err := fmt.Errorf("brevo error %s: %s", resp.Status, msg)

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return appErrors.NewTerminal(brevoProvider, code, err)
	default:
		return appErrors.NewTransient(brevoProvider, code, err)
	}
}
