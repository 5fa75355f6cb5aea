package service

import (
	"context"
	"fmt"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	"notifier/internal/domain/repository"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	reminderDateLayout = "Monday, January 2, 2006"
	reminderTimeLayout = "3:04 PM"
)

// ScannerConfig configures the reminder scanner.
type ScannerConfig struct {
	WindowStart time.Duration // offset from now, default 23h
	WindowEnd   time.Duration // offset from now, default 25h
	Workers     int
	Location    *time.Location // used to format the date and time in the message
	Channels    []constant.Channel
}

type reminderScanner struct {
	cfg          ScannerConfig
	appointments repository.AppointmentRepository
	history      HistoryService
	notifier     NotificationService
	log          logger.Logger
}

// NewReminderScanner creates a new instance of ReminderScanner implementation.
func NewReminderScanner(
	cfg ScannerConfig,
	appointments repository.AppointmentRepository,
	history HistoryService,
	notifier NotificationService,
	log logger.Logger,
) ReminderScanner {
	if cfg.WindowStart == 0 && cfg.WindowEnd == 0 {
		cfg.WindowStart, cfg.WindowEnd = 23*time.Hour, 25*time.Hour
	}
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &reminderScanner{
		cfg:          cfg,
		appointments: appointments,
		history:      history,
		notifier:     notifier,
		log:          log,
	}
}

type scanOutcome int

const (
	scanSent scanOutcome = iota
	scanAlreadySent
	scanSkipped
	scanFailed
)

func (s *reminderScanner) Scan(ctx context.Context, now time.Time) (ScanResult, error) {
	windowStart, windowEnd := now.Add(s.cfg.WindowStart), now.Add(s.cfg.WindowEnd)
	due, err := s.appointments.ListDueForReminder(ctx, windowStart, windowEnd)
	if err != nil {
		return ScanResult{}, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}

	result := ScanResult{Due: len(due)}
	if len(due) == 0 {
		s.log.Debug(fmt.Sprintf("No reminders due between %s and %s", windowStart.Format(time.RFC3339), windowEnd.Format(time.RFC3339)))
		return result, nil
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.cfg.Workers)
	for _, appt := range due {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			o := s.process(ctx, appt)
			mu.Lock()
			defer mu.Unlock()
			switch o {
			case scanSent:
				result.Sent++
			case scanAlreadySent:
				result.AlreadySent++
			case scanSkipped:
				result.Skipped++
			default:
				result.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info(fmt.Sprintf("Reminder scan complete. Due: %d, Sent: %d, Already sent: %d, Skipped: %d, Failed: %d",
		result.Due, result.Sent, result.AlreadySent, result.Skipped, result.Failed))
	return result, ctx.Err()
}

func (s *reminderScanner) process(ctx context.Context, appt *entity.Appointment) scanOutcome {
	if !appt.Status.Remindable() {
		return scanSkipped
	}
	dedupKey := entity.ReminderDedupKey(appt.ID)

	sent, err := s.history.HasSucceeded(ctx, dedupKey)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to check history for appointment %s", appt.ID), err)
		return scanFailed
	}
	if sent {
		s.markSent(ctx, appt.ID)
		return scanAlreadySent
	}

	outcome, err := s.notifier.Notify(ctx, s.request(appt, dedupKey))
	if err != nil {
		if isExhausted(err) {
			s.log.Warn(fmt.Sprintf("Reminder for appointment %s not delivered: %v", appt.ID, err))
		} else {
			s.log.Error(fmt.Sprintf("Reminder for appointment %s failed", appt.ID), err)
		}
		return scanFailed
	}

	s.markSent(ctx, appt.ID)
	if outcome.Status == constant.OutcomeAlreadySent {
		return scanAlreadySent
	}
	return scanSent
}

// markSent failures are logged only; the next scan finds the Sent attempt and marks again.
func (s *reminderScanner) markSent(ctx context.Context, appointmentID string) {
	if err := s.appointments.MarkReminderSent(context.WithoutCancel(ctx), appointmentID); err != nil {
		s.log.Error(fmt.Sprintf("Failed to mark reminder sent for appointment %s", appointmentID), err)
	}
}

func (s *reminderScanner) request(appt *entity.Appointment, dedupKey string) entity.NotificationRequest {
	at := appt.ScheduledAt.In(s.cfg.Location)
	return entity.NotificationRequest{
		Kind:              constant.KindAppointmentReminder,
		ChannelPreference: s.cfg.Channels,
		Destination: entity.Destination{
			Phone:      appt.Phone,
			Email:      appt.Email,
			LineUserID: appt.LineUserID,
			Name:       appt.CustomerName,
		},
		Payload: map[string]string{
			"customer_name": appt.CustomerName,
			"date":          at.Format(reminderDateLayout),
			"time":          at.Format(reminderTimeLayout),
			"artist_name":   appt.ArtistName,
			"service":       appt.Service,
		},
		DedupKey: dedupKey,
	}
}
