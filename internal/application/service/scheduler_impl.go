package service

import (
	"context"
	"fmt"
	"notifier/internal/domain/repository"
	"notifier/internal/infrastructure/scheduler"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	lastCheckedKey      = "last_checked_at"
	retentionSpec       = "@daily"
	defaultScanInterval = time.Hour
)

// SchedulerConfig configures the reminder scheduler.
type SchedulerConfig struct {
	Interval  time.Duration
	Retention time.Duration // history older than this is pruned daily; 0 keeps everything
	Now       func() time.Time
}

type schedulerService struct {
	cfg           SchedulerConfig
	cronScheduler *scheduler.Scheduler
	scanner       ReminderScanner
	history       HistoryService
	state         repository.StateRepository
	log           logger.Logger

	mu         sync.Mutex // guards the fields below
	running    bool
	cancel     context.CancelFunc
	jobs       []cron.EntryID
	lastResult *ScanResult
	lastError  string

	scanMu sync.Mutex // serializes scans
	wg     sync.WaitGroup
}

// NewSchedulerService creates a new instance of SchedulerService implementation.
func NewSchedulerService(
	cfg SchedulerConfig,
	cronScheduler *scheduler.Scheduler,
	scanner ReminderScanner,
	history HistoryService,
	state repository.StateRepository,
	log logger.Logger,
) SchedulerService {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultScanInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &schedulerService{
		cfg:           cfg,
		cronScheduler: cronScheduler,
		scanner:       scanner,
		history:       history,
		state:         state,
		log:           log,
	}
}

func (s *schedulerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	if last, ok, err := s.lastChecked(ctx); err != nil {
		s.log.Warn(fmt.Sprintf("Could not read last scan time: %v", err))
	} else if ok {
		s.log.Info(fmt.Sprintf("Last reminder scan ran at %s", last.Format(time.RFC3339)))
	}

	runCtx, cancel := context.WithCancel(ctx)
	jobs := map[string]func(){
		fmt.Sprintf("@every %s", s.cfg.Interval): func() { s.scheduledScan(runCtx) },
	}
	if s.cfg.Retention > 0 {
		jobs[retentionSpec] = func() { s.prune(runCtx) }
	}
	for spec, job := range jobs {
		id, err := s.cronScheduler.AddJob(spec, job)
		if err != nil {
			cancel()
			s.removeJobs()
			return fmt.Errorf("%w: %v", appErrors.ErrScheduling, err)
		}
		s.jobs = append(s.jobs, id)
	}

	s.cancel, s.running = cancel, true
	s.cronScheduler.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.scheduledScan(runCtx)
	}()
	s.log.Info(fmt.Sprintf("Reminder scheduler started, scanning every %s", s.cfg.Interval))
	return nil
}

// removeJobs must be called with s.mu held.
func (s *schedulerService) removeJobs() {
	for _, id := range s.jobs {
		s.cronScheduler.RemoveJob(id)
	}
	s.jobs = nil
}

func (s *schedulerService) scheduledScan(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.RunNow(ctx); err != nil {
		s.log.Error("Scheduled reminder scan failed", err)
	}
}

func (s *schedulerService) RunNow(ctx context.Context) (ScanResult, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	now := s.cfg.Now()
	res, err := s.scanner.Scan(ctx, now)

	if perr := s.state.Put(context.WithoutCancel(ctx), lastCheckedKey, now.UTC().Format(time.RFC3339Nano)); perr != nil {
		s.log.Warn(fmt.Sprintf("Could not store last scan time: %v", perr))
	}

	s.mu.Lock()
	s.lastResult = &res
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()
	return res, err
}

func (s *schedulerService) prune(ctx context.Context) {
	cutoff := s.cfg.Now().Add(-s.cfg.Retention)
	if _, err := s.history.PruneOlderThan(ctx, cutoff); err != nil {
		s.log.Error("Delivery history pruning failed", err)
	}
}

func (s *schedulerService) lastChecked(ctx context.Context) (time.Time, bool, error) {
	raw, ok, err := s.state.Get(ctx, lastCheckedKey)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid %s value %q: %w", lastCheckedKey, raw, err)
	}
	return t, true, nil
}

func (s *schedulerService) Status(ctx context.Context) (SchedulerStatus, error) {
	s.mu.Lock()
	status := SchedulerStatus{
		Running:    s.running,
		Interval:   s.cfg.Interval,
		LastResult: s.lastResult,
		LastError:  s.lastError,
	}
	s.mu.Unlock()

	last, ok, err := s.lastChecked(ctx)
	if err != nil {
		return status, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	if ok {
		status.LastCheckedAt = &last
	}
	return status, nil
}

func (s *schedulerService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	// Workers stop taking new appointments; sends already started run to their own timeout.
	cancel()
	s.cronScheduler.Stop()
	s.wg.Wait()

	s.mu.Lock()
	s.removeJobs()
	s.mu.Unlock()
	s.log.Info("Reminder scheduler stopped.")
}
