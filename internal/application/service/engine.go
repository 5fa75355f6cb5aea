package service

import (
	"context"
	"fmt"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/destination"
	"notifier/internal/domain/entity"
	"notifier/internal/domain/repository"
	"notifier/internal/domain/template"
	"notifier/internal/infrastructure/scheduler"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
	"notifier/internal/pkg/retry"
	"sync"
	"time"
)

// EngineConfig is everything the engine needs besides its stores.
type EngineConfig struct {
	Channels           []ChannelRegistration
	KindOrder          map[constant.Kind][]constant.Channel
	ReminderChannels   []constant.Channel // empty means the reminder kind order
	DefaultCountryCode string
	TemplateDefaults   map[string]string // business_name, business_phone
	Location           *time.Location
	WindowStart        time.Duration
	WindowEnd          time.Duration
	ScanWorkers        int
	ScanInterval       time.Duration
	SendTimeout        time.Duration
	HistoryRetention   time.Duration

	// Injected for tests.
	Now   func() time.Time
	Sleep retry.SleepFunc
}

// EngineDeps are the stores and infrastructure the engine is built on.
type EngineDeps struct {
	Attempts     repository.AttemptRepository
	Quotas       repository.QuotaRepository
	Appointments repository.AppointmentRepository
	State        repository.StateRepository
	Cron         *scheduler.Scheduler
	Logger       logger.Logger
}

// Engine is the single entry point to notification delivery and reminder scheduling.
type Engine struct {
	notifier  NotificationService
	quota     QuotaService
	history   HistoryService
	scheduler SchedulerService
	log       logger.Logger

	mu      sync.RWMutex
	stopped bool
}

// NewEngine wires the services. Nothing runs until Start.
func NewEngine(cfg EngineConfig, deps EngineDeps) (*Engine, error) {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	normalizer, err := destination.NewNormalizer(cfg.DefaultCountryCode)
	if err != nil {
		return nil, err
	}
	renderer, err := template.NewRenderer(cfg.TemplateDefaults)
	if err != nil {
		return nil, err
	}

	caps := make(map[constant.Channel]Caps, len(cfg.Channels))
	order := make([]constant.Channel, 0, len(cfg.Channels))
	for _, reg := range cfg.Channels {
		caps[reg.Channel] = reg.Caps
		order = append(order, reg.Channel)
	}
	for kind, channels := range cfg.KindOrder {
		for _, ch := range channels {
			if _, ok := caps[ch]; !ok {
				return nil, fmt.Errorf("%w: %s in the order for %s", appErrors.ErrUnknownChannel, ch, kind)
			}
		}
	}

	quota := NewQuotaService(deps.Quotas, caps, order, cfg.Location, cfg.Now, log)
	history := NewHistoryService(deps.Attempts, cfg.Now, log)
	notifier, err := NewNotificationService(NotificationConfig{
		Channels:    cfg.Channels,
		KindOrder:   cfg.KindOrder,
		SendTimeout: cfg.SendTimeout,
		Sleep:       cfg.Sleep,
		Now:         cfg.Now,
	}, normalizer, renderer, quota, history, log)
	if err != nil {
		return nil, err
	}
	scanner := NewReminderScanner(ScannerConfig{
		WindowStart: cfg.WindowStart,
		WindowEnd:   cfg.WindowEnd,
		Workers:     cfg.ScanWorkers,
		Location:    cfg.Location,
		Channels:    cfg.ReminderChannels,
	}, deps.Appointments, history, notifier, log)

	cron := deps.Cron
	if cron == nil {
		cron = scheduler.NewScheduler(log)
	}
	sched := NewSchedulerService(SchedulerConfig{
		Interval:  cfg.ScanInterval,
		Retention: cfg.HistoryRetention,
		Now:       cfg.Now,
	}, cron, scanner, history, deps.State, log)

	return &Engine{
		notifier:  notifier,
		quota:     quota,
		history:   history,
		scheduler: sched,
		log:       log,
	}, nil
}

// NotifyNow delivers a request immediately, bypassing the scheduler.
func (e *Engine) NotifyNow(ctx context.Context, req entity.NotificationRequest) (Outcome, error) {
	e.mu.RLock()
	stopped := e.stopped
	e.mu.RUnlock()
	if stopped {
		return Outcome{Status: constant.OutcomeFailed, LastError: appErrors.ErrEngineStopped.Error()}, appErrors.ErrEngineStopped
	}
	return e.notifier.Notify(ctx, req)
}

// Start launches the reminder scheduler.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	e.stopped = false
	e.mu.Unlock()
	return e.scheduler.Start(ctx)
}

// Stop halts the scheduler and rejects further NotifyNow calls.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()
	e.scheduler.Stop()
}

// Channels lists the registered channels.
func (e *Engine) Channels() []constant.Channel {
	return e.notifier.Channels()
}

// Usage reports the current quota usage of one channel.
func (e *Engine) Usage(ctx context.Context, channel constant.Channel) (UsageSnapshot, error) {
	return e.quota.Usage(ctx, channel)
}

// UsageAll reports the current quota usage of every channel.
func (e *Engine) UsageAll(ctx context.Context) ([]UsageSnapshot, error) {
	return e.quota.UsageAll(ctx)
}

// Attempts returns the delivery history of one business event.
func (e *Engine) Attempts(ctx context.Context, dedupKey string) ([]*entity.DeliveryAttempt, error) {
	return e.history.Attempts(ctx, dedupKey)
}

// RecentAttempts returns the newest delivery attempts.
func (e *Engine) RecentAttempts(ctx context.Context, limit int) ([]*entity.DeliveryAttempt, error) {
	return e.history.Recent(ctx, limit)
}

// Stats aggregates delivery attempts per kind and channel.
func (e *Engine) Stats(ctx context.Context) ([]DeliveryStat, error) {
	return e.history.Stats(ctx)
}

// ScanNow runs a reminder scan immediately.
func (e *Engine) ScanNow(ctx context.Context) (ScanResult, error) {
	return e.scheduler.RunNow(ctx)
}

// SchedulerStatus reports the state of the reminder scheduler.
func (e *Engine) SchedulerStatus(ctx context.Context) (SchedulerStatus, error) {
	return e.scheduler.Status(ctx)
}
