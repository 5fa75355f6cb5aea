package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	"notifier/internal/domain/repository"
	"notifier/internal/infrastructure/database/sqlite"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
	"notifier/internal/pkg/retry"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "notifier.db"), "silent")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.CloseDB(db) })
	return db
}

// fakeAdapter fails with errs[i] on call i, then with always, then succeeds.
type fakeAdapter struct {
	mu     sync.Mutex
	errs   []error
	always error
	calls  int
	sentTo []string
}

func (f *fakeAdapter) Send(_ context.Context, to string, _ *string, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if i := f.calls - 1; i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if f.always != nil {
		return "", f.always
	}
	f.sentTo = append(f.sentTo, to)
	return fmt.Sprintf("msg-%d", f.calls), nil
}

func (f *fakeAdapter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	return nil
}

type harness struct {
	engine       *Engine
	sms          *fakeAdapter
	email        *fakeAdapter
	sleeps       *sleepRecorder
	appointments repository.AppointmentRepository
	attempts     repository.AttemptRepository
}

func newHarness(t *testing.T, tweak func(cfg *EngineConfig)) *harness {
	t.Helper()
	db := newTestDB(t)
	h := &harness{
		sms:          &fakeAdapter{},
		email:        &fakeAdapter{},
		sleeps:       &sleepRecorder{},
		appointments: sqlite.NewAppointmentRepository(db),
		attempts:     sqlite.NewAttemptRepository(db),
	}

	policy := retry.Policy{MaxAttempts: 3, Delay: time.Second, Linear: true}
	cfg := EngineConfig{
		Channels: []ChannelRegistration{
			{Channel: constant.ChannelSMS, Shape: constant.ShapeSMS, Adapter: h.sms, Caps: Caps{Daily: 100, Monthly: 500, CostPerMessage: 0.0079}, Retry: policy},
			{Channel: constant.ChannelEmail, Shape: constant.ShapeEmail, Adapter: h.email, Caps: Caps{Daily: 300, Monthly: 9000}, Retry: policy},
		},
		KindOrder: map[constant.Kind][]constant.Channel{
			constant.KindAppointmentConfirmation: {constant.ChannelSMS, constant.ChannelEmail},
			constant.KindAppointmentReminder:     {constant.ChannelSMS, constant.ChannelEmail},
			constant.KindPaymentConfirmation:     {constant.ChannelEmail, constant.ChannelSMS},
		},
		DefaultCountryCode: "+1",
		TemplateDefaults:   map[string]string{"business_name": "Ink Studio"},
		Location:           time.UTC,
		WindowStart:        23 * time.Hour,
		WindowEnd:          25 * time.Hour,
		ScanWorkers:        4,
		ScanInterval:       time.Hour,
		SendTimeout:        time.Second,
		Now:                func() time.Time { return testNow },
		Sleep:              h.sleeps.Sleep,
	}
	if tweak != nil {
		tweak(&cfg)
	}

	engine, err := NewEngine(cfg, EngineDeps{
		Attempts:     h.attempts,
		Quotas:       sqlite.NewQuotaRepository(db),
		Appointments: h.appointments,
		State:        sqlite.NewStateRepository(db),
		Logger:       logger.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(engine.Stop)
	h.engine = engine
	return h
}

func confirmation(dedupKey string) entity.NotificationRequest {
	return entity.NotificationRequest{
		Kind:        constant.KindAppointmentConfirmation,
		Destination: entity.Destination{Phone: "(555) 123-4567", Email: "ann@example.com", Name: "Ann"},
		Payload: map[string]string{
			"customer_name": "Ann",
			"date":          "Thursday, May 2, 2024",
			"time":          "2:00 PM",
			"artist_name":   "Kai",
			"service":       "Fine line tattoo",
		},
		DedupKey: dedupKey,
	}
}

func (h *harness) addAppointment(t *testing.T, id string, in time.Duration, mutate func(a *entity.Appointment)) {
	t.Helper()
	a := &entity.Appointment{
		ID:           id,
		CustomerName: "Customer " + id,
		Phone:        "5551234567",
		Email:        id + "@example.com",
		ArtistName:   "Kai",
		Service:      "Touch-up",
		ScheduledAt:  testNow.Add(in),
		Status:       constant.AppointmentScheduled,
	}
	if mutate != nil {
		mutate(a)
	}
	require.NoError(t, h.appointments.Save(context.Background(), a))
}

func (h *harness) reminderSent(t *testing.T, id string) bool {
	t.Helper()
	a, err := h.appointments.FindByID(context.Background(), id)
	require.NoError(t, err)
	return a.ReminderSent
}

var (
	errSMSRejected = appErrors.NewTerminal("twilio", "21211", fmt.Errorf("invalid To number"))
	errSMSTimeout  = appErrors.NewTransient("twilio", "", fmt.Errorf("i/o timeout"))
)
