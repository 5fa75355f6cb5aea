package service

import (
	"context"
	"errors"
	"fmt"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/destination"
	"notifier/internal/domain/entity"
	"notifier/internal/domain/template"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
	"notifier/internal/pkg/retry"
	"strings"
	"time"
)

const defaultSendTimeout = 10 * time.Second

type notificationService struct {
	channels    map[constant.Channel]ChannelRegistration
	order       []constant.Channel
	kindOrder   map[constant.Kind][]constant.Channel
	sendTimeout time.Duration
	sleep       retry.SleepFunc
	now         func() time.Time

	normalizer *destination.Normalizer
	renderer   *template.Renderer
	quota      QuotaService
	history    HistoryService
	locks      *keyLock
	log        logger.Logger
}

// NewNotificationService creates the delivery orchestrator.
func NewNotificationService(
	cfg NotificationConfig,
	normalizer *destination.Normalizer,
	renderer *template.Renderer,
	quota QuotaService,
	history HistoryService,
	log logger.Logger,
) (NotificationService, error) {
	s := &notificationService{
		channels:    make(map[constant.Channel]ChannelRegistration, len(cfg.Channels)),
		kindOrder:   cfg.KindOrder,
		sendTimeout: cfg.SendTimeout,
		sleep:       cfg.Sleep,
		now:         cfg.Now,
		normalizer:  normalizer,
		renderer:    renderer,
		quota:       quota,
		history:     history,
		locks:       newKeyLock(),
		log:         log,
	}
	for _, reg := range cfg.Channels {
		if reg.Adapter == nil {
			return nil, fmt.Errorf("channel %s has no adapter", reg.Channel)
		}
		if _, dup := s.channels[reg.Channel]; dup {
			return nil, fmt.Errorf("channel %s registered twice", reg.Channel)
		}
		if reg.Retry.MaxAttempts < 1 {
			reg.Retry.MaxAttempts = 1
		}
		s.channels[reg.Channel] = reg
		s.order = append(s.order, reg.Channel)
	}
	if s.sendTimeout <= 0 {
		s.sendTimeout = defaultSendTimeout
	}
	if s.sleep == nil {
		s.sleep = retry.Sleep
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *notificationService) Channels() []constant.Channel {
	return append([]constant.Channel(nil), s.order...)
}

func (s *notificationService) Notify(ctx context.Context, req entity.NotificationRequest) (Outcome, error) {
	if strings.TrimSpace(req.DedupKey) == "" {
		return Outcome{Status: constant.OutcomeFailed, LastError: appErrors.ErrMissingDedupKey.Error()}, appErrors.ErrMissingDedupKey
	}
	if err := s.renderer.Validate(req.Kind, req.Payload); err != nil {
		return Outcome{Status: constant.OutcomeFailed, LastError: err.Error()}, err
	}

	channels := req.ChannelPreference
	if len(channels) == 0 {
		channels = s.kindOrder[req.Kind]
	}
	if len(channels) == 0 {
		err := fmt.Errorf("%w: no channels configured for %s", appErrors.ErrAllChannelsExhausted, req.Kind)
		return Outcome{Status: constant.OutcomeFailed, LastError: err.Error()}, err
	}

	unlock := s.locks.Lock(req.DedupKey)
	defer unlock()

	sent, err := s.history.HasSucceeded(ctx, req.DedupKey)
	if err != nil {
		return Outcome{Status: constant.OutcomeFailed, LastError: err.Error()}, err
	}
	if sent {
		return s.alreadySent(ctx, req.DedupKey), nil
	}

	out := Outcome{Status: constant.OutcomeFailed}
	var lastErr error
	skip := func(ch constant.Channel, err error) {
		lastErr = err
		out.Skipped = append(out.Skipped, ChannelSkip{Channel: ch, Reason: err.Error()})
	}

	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			skip(ch, err)
			break
		}
		reg, ok := s.channels[ch]
		if !ok {
			skip(ch, fmt.Errorf("%w: %s", appErrors.ErrUnknownChannel, ch))
			continue
		}

		to, err := s.normalizer.ForShape(reg.Shape, req.Destination)
		if err != nil {
			s.log.Debug(fmt.Sprintf("Skipping %s for %s: %v", ch, req.DedupKey, err))
			skip(ch, err)
			continue
		}

		reservation, granted, err := s.quota.Reserve(ctx, ch, s.now())
		if err != nil {
			s.log.Error(fmt.Sprintf("Quota check failed for %s", ch), err)
			skip(ch, err)
			continue
		}
		if !granted {
			s.log.Warn(fmt.Sprintf("Quota exhausted for %s, skipping %s", ch, req.DedupKey))
			skip(ch, fmt.Errorf("%w: %s", appErrors.ErrQuotaExceeded, ch))
			continue
		}

		subject, body, err := s.renderer.Render(req.Kind, reg.Shape, req.Payload)
		if err != nil {
			s.quota.Release(reservation)
			out.LastError = err.Error()
			return out, err
		}

		messageID, tries, sendErr := s.send(ctx, reg, to, subject, body)
		// The provider call happened; its bookkeeping must not be lost to a cancelled caller.
		persistCtx := context.WithoutCancel(ctx)
		attempt := &entity.DeliveryAttempt{
			DedupKey:     req.DedupKey,
			Kind:         req.Kind,
			Channel:      ch,
			Destination:  to,
			Subject:      subject,
			RenderedBody: body,
			Tries:        tries,
		}

		if sendErr == nil {
			attempt.Status = constant.DeliverySent
			if messageID != "" {
				attempt.ProviderMessageID = &messageID
			}
			if err := s.history.Record(persistCtx, attempt); err != nil {
				s.log.Error(fmt.Sprintf("Message %s was sent via %s but could not be recorded", req.DedupKey, ch), err)
			}
			if err := s.quota.Commit(persistCtx, reservation); err != nil {
				s.log.Error(fmt.Sprintf("Failed to count sent message %s on %s", req.DedupKey, ch), err)
			}
			s.log.Info(fmt.Sprintf("Sent %s (%s) via %s after %d tries", req.DedupKey, req.Kind, ch, tries))

			out.Status = constant.OutcomeSent
			out.Channel = ch
			out.MessageID = messageID
			out.AttemptID = attempt.ID
			return out, nil
		}

		s.quota.Release(reservation)
		reason := sendErr.Error()
		attempt.Status = constant.DeliveryFailed
		attempt.ErrorReason = &reason
		if err := s.history.Record(persistCtx, attempt); err != nil {
			s.log.Error(fmt.Sprintf("Failed to record failed attempt for %s via %s", req.DedupKey, ch), err)
		}
		s.log.Warn(fmt.Sprintf("Delivery of %s via %s failed after %d tries: %v", req.DedupKey, ch, tries, sendErr))
		skip(ch, sendErr)
	}

	out.LastError = lastErr.Error()
	return out, fmt.Errorf("%w: %w", appErrors.ErrAllChannelsExhausted, lastErr)
}

// send calls the adapter, retrying transient errors. Each call gets its own
// timeout and is not cut short when ctx is cancelled.
func (s *notificationService) send(ctx context.Context, reg ChannelRegistration, to string, subject *string, body string) (string, int, error) {
	var messageID string
	tries, err := retry.Do(ctx, reg.Retry, s.sleep, isRetryable, func(attempt int) error {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sendTimeout)
		defer cancel()

		id, err := reg.Adapter.Send(sendCtx, to, subject, body)
		if err != nil {
			s.log.Debug(fmt.Sprintf("Try %d via %s failed: %v", attempt, reg.Channel, err))
			return err
		}
		messageID = id
		return nil
	})
	return messageID, tries, err
}

func isRetryable(err error) bool {
	return !appErrors.IsTerminal(err)
}

func (s *notificationService) alreadySent(ctx context.Context, dedupKey string) Outcome {
	out := Outcome{Status: constant.OutcomeAlreadySent}
	attempts, err := s.history.Attempts(ctx, dedupKey)
	if err != nil {
		s.log.Warn(fmt.Sprintf("Could not load attempts for %s: %v", dedupKey, err))
		return out
	}
	for _, a := range attempts {
		if a.Succeeded() {
			out.Channel = a.Channel
			out.AttemptID = a.ID
			if a.ProviderMessageID != nil {
				out.MessageID = *a.ProviderMessageID
			}
			break
		}
	}
	return out
}

// isExhausted reports whether err means no channel could deliver.
func isExhausted(err error) bool {
	return errors.Is(err, appErrors.ErrAllChannelsExhausted)
}
