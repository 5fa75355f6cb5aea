package line

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
	"strconv"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

const provider = "line"

// Config holds the LINE Messaging API credentials.
type Config struct {
	ChannelSecret      string
	ChannelAccessToken string
	APIEndpoint        string // overrides the default endpoint, used in tests
	HTTPClient         *http.Client
}

// Client pushes text messages to LINE users.
type Client struct {
	bot *linebot.Client
	log logger.Logger
}

// NewClient creates a LINE push client. It returns an error when credentials are missing.
func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	if cfg.ChannelSecret == "" || cfg.ChannelAccessToken == "" {
		return nil, fmt.Errorf("CHANNEL_SECRET and CHANNEL_ACCESS_TOKEN environment variables must be set")
	}

	var opts []linebot.ClientOption
	if cfg.APIEndpoint != "" {
		opts = append(opts, linebot.WithEndpointBase(cfg.APIEndpoint))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, linebot.WithHTTPClient(cfg.HTTPClient))
	}

	bot, err := linebot.New(cfg.ChannelSecret, cfg.ChannelAccessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE Bot client: %w", err)
	}
	log.Info("Successfully created LINE Bot client.")
	return &Client{bot: bot, log: log}, nil
}

// Send pushes body as a text message to the LINE user ID. subject is ignored.
// LINE does not return a message ID for push messages; the request ID is used instead.
func (c *Client) Send(ctx context.Context, userID string, _ *string, body string) (string, error) {
	res, err := c.bot.PushMessage(userID, linebot.NewTextMessage(body)).WithContext(ctx).Do()
	if err != nil {
		return "", classify(err)
	}
	c.log.Debug(fmt.Sprintf("Successfully sent push message to %s.", userID))
	return res.RequestID, nil
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var apiErr *linebot.APIError
	if errors.As(err, &apiErr) {
		code := strconv.Itoa(apiErr.Code)
		switch apiErr.Code {
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
			return appErrors.NewTerminal(provider, code, err)
		default:
			return appErrors.NewTransient(provider, code, err)
		}
	}
	return appErrors.NewTransient(provider, "", err)
}
