package service

import (
	"context"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	"notifier/internal/pkg/retry"
	"time"
)

// ChannelAdapter sends one rendered message through one provider.
// Errors should be classified with errors.NewTerminal or errors.NewTransient;
// unclassified errors are retried.
type ChannelAdapter interface {
	Send(ctx context.Context, destination string, subject *string, body string) (string, error)
}

// ChannelRegistration binds a channel name to its adapter and policies.
type ChannelRegistration struct {
	Channel constant.Channel
	Shape   constant.Shape
	Adapter ChannelAdapter
	Caps    Caps
	Retry   retry.Policy
}

// ChannelSkip explains why a channel did not deliver a request.
type ChannelSkip struct {
	Channel constant.Channel
	Reason  string
}

// Outcome is the result of one notification request.
type Outcome struct {
	Status    constant.OutcomeStatus
	Channel   constant.Channel
	MessageID string
	AttemptID uint
	Skipped   []ChannelSkip
	LastError string
}

// NotificationConfig configures the delivery orchestrator.
type NotificationConfig struct {
	Channels    []ChannelRegistration
	KindOrder   map[constant.Kind][]constant.Channel // fallback order when a request has no preference
	SendTimeout time.Duration                        // bound for a single provider call
	Sleep       retry.SleepFunc
	Now         func() time.Time
}

// NotificationService delivers a request through the first channel that succeeds.
type NotificationService interface {
	// Notify delivers req at most once per dedup key. A request whose key
	// already has a Sent attempt returns OutcomeAlreadySent without sending.
	Notify(ctx context.Context, req entity.NotificationRequest) (Outcome, error)
	// Channels lists the registered channel names in registration order.
	Channels() []constant.Channel
}
