// Package config reads the engine configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"notifier/internal/domain/constant"
	"os"
	"strconv"
	"strings"
	"time"
)

// ChannelConfig holds the limits of one channel.
type ChannelConfig struct {
	DailyCap       int
	MonthlyCap     int
	CostPerMessage float64
	RatePerSecond  float64 // 0 disables client-side throttling
}

// TwilioConfig holds Twilio credentials for the sms channel.
type TwilioConfig struct {
	AccountSID          string
	AuthToken           string
	FromNumber          string
	MessagingServiceSID string
}

// SNSConfig enables the sms_sns channel. Credentials come from the AWS default chain.
type SNSConfig struct {
	Enabled  bool
	Region   string
	SenderID string
	SMSType  string
}

// BrevoConfig holds Brevo credentials for the email channel.
type BrevoConfig struct {
	APIKey      string
	SenderEmail string
	SenderName  string
}

// LineConfig holds LINE Messaging API credentials for the line channel.
type LineConfig struct {
	ChannelSecret      string
	ChannelAccessToken string
}

// Config is the full process configuration.
type Config struct {
	Port       int
	DBURL      string
	DBLogLevel string
	LogLevel   string

	DefaultCountryCode string
	Location           *time.Location
	BusinessName       string
	BusinessPhone      string

	ScanInterval     time.Duration
	WindowStart      time.Duration
	WindowEnd        time.Duration
	ScanWorkers      int
	SendTimeout      time.Duration
	SendMaxAttempts  int
	SendRetryDelay   time.Duration
	SendRetryLinear  bool
	HistoryRetention time.Duration

	Channels  map[constant.Channel]ChannelConfig
	KindOrder map[constant.Kind][]constant.Channel

	// SimulateChannels lets channels without credentials log instead of send.
	// Off by default, so a missing credential fails startup.
	SimulateChannels bool

	Twilio TwilioConfig
	SNS    SNSConfig
	Brevo  BrevoConfig
	Line   LineConfig
}

// AllChannels lists every channel the engine knows, in registration order.
func AllChannels() []constant.Channel {
	return []constant.Channel{constant.ChannelSMS, constant.ChannelSMSSNS, constant.ChannelEmail, constant.ChannelLine}
}

var defaultChannels = map[constant.Channel]ChannelConfig{
	constant.ChannelSMS:    {DailyCap: 100, MonthlyCap: 500, CostPerMessage: 0.0079},
	constant.ChannelSMSSNS: {DailyCap: 100, MonthlyCap: 500, CostPerMessage: 0.00645},
	constant.ChannelEmail:  {DailyCap: 300, MonthlyCap: 9000},
	constant.ChannelLine:   {DailyCap: 500, MonthlyCap: 500},
}

var defaultKindOrder = map[constant.Kind][]constant.Channel{
	constant.KindAppointmentConfirmation: {constant.ChannelSMS, constant.ChannelEmail},
	constant.KindAppointmentReminder:     {constant.ChannelSMS, constant.ChannelEmail},
	constant.KindAppointmentCancellation: {constant.ChannelSMS, constant.ChannelEmail},
	constant.KindPaymentConfirmation:     {constant.ChannelEmail, constant.ChannelSMS},
	constant.KindPaymentReminder:         {constant.ChannelEmail, constant.ChannelSMS},
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration through getenv. Every invalid value is reported.
func LoadFrom(getenv func(string) string) (*Config, error) {
	l := &loader{getenv: getenv}

	cfg := &Config{
		Port:       l.Int("PORT", 8080),
		DBURL:      l.String("BLUEPRINT_DB_URL", "notifier.db"),
		DBLogLevel: l.String("DB_LOG_LEVEL", "silent"),
		LogLevel:   l.String("LOG_LEVEL", "info"),

		DefaultCountryCode: l.String("DEFAULT_COUNTRY_CODE", "+1"),
		Location:           l.Location("TIMEZONE", "Local"),
		BusinessName:       l.String("BUSINESS_NAME", ""),
		BusinessPhone:      l.String("BUSINESS_PHONE", ""),

		ScanInterval:     l.Duration("SCAN_INTERVAL", time.Hour),
		WindowStart:      l.Duration("REMINDER_WINDOW_START", 23*time.Hour),
		WindowEnd:        l.Duration("REMINDER_WINDOW_END", 25*time.Hour),
		ScanWorkers:      l.Int("SCAN_WORKERS", 4),
		SendTimeout:      l.Duration("SEND_TIMEOUT", 10*time.Second),
		SendMaxAttempts:  l.Int("SEND_MAX_ATTEMPTS", 3),
		SendRetryDelay:   l.Duration("SEND_RETRY_DELAY", time.Second),
		SendRetryLinear:  l.Bool("SEND_RETRY_LINEAR", true),
		HistoryRetention: l.Duration("HISTORY_RETENTION", 0),

		Channels:  make(map[constant.Channel]ChannelConfig, len(defaultChannels)),
		KindOrder: make(map[constant.Kind][]constant.Channel, len(defaultKindOrder)),

		SimulateChannels: l.Bool("SIMULATE_CHANNELS", false),

		Twilio: TwilioConfig{
			AccountSID:          l.String("TWILIO_ACCOUNT_SID", ""),
			AuthToken:           l.String("TWILIO_AUTH_TOKEN", ""),
			FromNumber:          l.String("TWILIO_FROM_NUMBER", ""),
			MessagingServiceSID: l.String("TWILIO_MESSAGING_SERVICE_SID", ""),
		},
		SNS: SNSConfig{
			Enabled:  l.Bool("SNS_ENABLED", false),
			Region:   l.String("AWS_REGION", ""),
			SenderID: l.String("SNS_SENDER_ID", ""),
			SMSType:  l.String("SNS_SMS_TYPE", "Transactional"),
		},
		Brevo: BrevoConfig{
			APIKey:      l.String("BREVO_API_KEY", ""),
			SenderEmail: l.String("BREVO_SENDER_EMAIL", ""),
			SenderName:  l.String("BREVO_SENDER_NAME", ""),
		},
		Line: LineConfig{
			ChannelSecret:      l.String("CHANNEL_SECRET", ""),
			ChannelAccessToken: l.String("CHANNEL_ACCESS_TOKEN", ""),
		},
	}

	for _, ch := range AllChannels() {
		def := defaultChannels[ch]
		prefix := strings.ToUpper(string(ch)) + "_"
		cfg.Channels[ch] = ChannelConfig{
			DailyCap:       l.Int(prefix+"DAILY_CAP", def.DailyCap),
			MonthlyCap:     l.Int(prefix+"MONTHLY_CAP", def.MonthlyCap),
			CostPerMessage: l.Float(prefix+"COST_PER_MESSAGE", def.CostPerMessage),
			RatePerSecond:  l.Float(prefix+"RATE_PER_SECOND", def.RatePerSecond),
		}
	}
	for _, kind := range constant.Kinds() {
		cfg.KindOrder[kind] = l.Channels("CHANNELS_"+strings.ToUpper(string(kind)), defaultKindOrder[kind])
	}

	cfg.validate(l)
	if err := errors.Join(l.errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate(l *loader) {
	if c.Port < 1 || c.Port > 65535 {
		l.fail("PORT", fmt.Errorf("must be between 1 and 65535"))
	}
	if c.ScanInterval <= 0 {
		l.fail("SCAN_INTERVAL", fmt.Errorf("must be positive"))
	}
	if c.WindowEnd <= c.WindowStart {
		l.fail("REMINDER_WINDOW_END", fmt.Errorf("must be after REMINDER_WINDOW_START"))
	}
	if c.ScanWorkers < 1 {
		l.fail("SCAN_WORKERS", fmt.Errorf("must be at least 1"))
	}
	if c.SendTimeout <= 0 {
		l.fail("SEND_TIMEOUT", fmt.Errorf("must be positive"))
	}
	if c.SendMaxAttempts < 1 {
		l.fail("SEND_MAX_ATTEMPTS", fmt.Errorf("must be at least 1"))
	}
	if c.HistoryRetention < 0 {
		l.fail("HISTORY_RETENTION", fmt.Errorf("must not be negative"))
	}
	for _, ch := range AllChannels() {
		cc := c.Channels[ch]
		prefix := strings.ToUpper(string(ch)) + "_"
		if cc.DailyCap < 0 {
			l.fail(prefix+"DAILY_CAP", fmt.Errorf("must not be negative"))
		}
		if cc.MonthlyCap < 0 {
			l.fail(prefix+"MONTHLY_CAP", fmt.Errorf("must not be negative"))
		}
	}
	if c.SimulateChannels {
		return
	}
	for _, kind := range constant.Kinds() {
		for _, ch := range c.KindOrder[kind] {
			if !c.Configured(ch) {
				l.fail("CHANNELS_"+strings.ToUpper(string(kind)),
					fmt.Errorf("channel %s has no provider credentials; configure it, remove it or set SIMULATE_CHANNELS=true", ch))
			}
		}
	}
}

// Configured reports whether the provider behind ch has its credentials set.
func (c *Config) Configured(ch constant.Channel) bool {
	switch ch {
	case constant.ChannelSMS:
		return c.Twilio.AccountSID != "" && c.Twilio.AuthToken != "" &&
			(c.Twilio.FromNumber != "" || c.Twilio.MessagingServiceSID != "")
	case constant.ChannelSMSSNS:
		return c.SNS.Enabled
	case constant.ChannelEmail:
		return c.Brevo.APIKey != "" && c.Brevo.SenderEmail != ""
	case constant.ChannelLine:
		return c.Line.ChannelSecret != "" && c.Line.ChannelAccessToken != ""
	default:
		return false
	}
}

// InKindOrder reports whether any kind delivers through ch.
func (c *Config) InKindOrder(ch constant.Channel) bool {
	for _, channels := range c.KindOrder {
		for _, used := range channels {
			if used == ch {
				return true
			}
		}
	}
	return false
}

type loader struct {
	getenv func(string) string
	errs   []error
}

func (l *loader) fail(key string, err error) {
	l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
}

func (l *loader) String(key, def string) string {
	if val := strings.TrimSpace(l.getenv(key)); val != "" {
		return val
	}
	return def
}

func (l *loader) Int(key string, def int) int {
	val := strings.TrimSpace(l.getenv(key))
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		l.fail(key, err)
		return def
	}
	return parsed
}

func (l *loader) Float(key string, def float64) float64 {
	val := strings.TrimSpace(l.getenv(key))
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		l.fail(key, err)
		return def
	}
	return parsed
}

func (l *loader) Bool(key string, def bool) bool {
	val := strings.TrimSpace(l.getenv(key))
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		l.fail(key, err)
		return def
	}
	return parsed
}

// Duration accepts Go duration strings such as 90m or 1h30m.
func (l *loader) Duration(key string, def time.Duration) time.Duration {
	val := strings.TrimSpace(l.getenv(key))
	if val == "" {
		return def
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		l.fail(key, err)
		return def
	}
	return parsed
}

func (l *loader) Location(key, def string) *time.Location {
	name := l.String(key, def)
	loc, err := time.LoadLocation(name)
	if err != nil {
		l.fail(key, err)
		return time.Local
	}
	return loc
}

// Channels parses a comma separated list of known channel names.
func (l *loader) Channels(key string, def []constant.Channel) []constant.Channel {
	val := strings.TrimSpace(l.getenv(key))
	if val == "" {
		return append([]constant.Channel(nil), def...)
	}
	known := make(map[constant.Channel]bool)
	for _, ch := range AllChannels() {
		known[ch] = true
	}
	var out []constant.Channel
	for _, part := range strings.Split(val, ",") {
		ch := constant.Channel(strings.ToLower(strings.TrimSpace(part)))
		if ch == "" {
			continue
		}
		if !known[ch] {
			l.fail(key, fmt.Errorf("unknown channel %q", ch))
			continue
		}
		out = append(out, ch)
	}
	return out
}
