package service

import (
	"context"
	"testing"
	"time"

	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	appErrors "notifier/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_StartScansImmediately(t *testing.T) {
	h := newHarness(t, nil)
	h.addAppointment(t, "a1", 24*time.Hour, nil)
	ctx := context.Background()

	status, err := h.engine.SchedulerStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.Running)
	assert.Nil(t, status.LastCheckedAt)

	require.NoError(t, h.engine.Start(ctx))
	assert.Eventually(t, func() bool {
		a, err := h.appointments.FindByID(ctx, "a1")
		return err == nil && a.ReminderSent
	}, 5*time.Second, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		s, err := h.engine.SchedulerStatus(ctx)
		return err == nil && s.LastResult != nil
	}, 5*time.Second, 20*time.Millisecond)

	status, err = h.engine.SchedulerStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.Equal(t, time.Hour, status.Interval)
	require.NotNil(t, status.LastCheckedAt)
	assert.True(t, status.LastCheckedAt.Equal(testNow))
	assert.Equal(t, 1, status.LastResult.Sent)

	h.engine.Stop()
	status, err = h.engine.SchedulerStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.Running)
	// The last scan time survives in the state store.
	require.NotNil(t, status.LastCheckedAt)
}

func TestScheduler_StartTwiceAndRestart(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.engine.Start(ctx))
	require.NoError(t, h.engine.Start(ctx))
	h.engine.Stop()
	h.engine.Stop()

	require.NoError(t, h.engine.Start(ctx))
	status, err := h.engine.SchedulerStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Running)

	_, err = h.engine.NotifyNow(ctx, confirmation("appt-1:confirmation"))
	assert.NoError(t, err)
}

func TestScheduler_RetentionPrunesHistory(t *testing.T) {
	h := newHarness(t, func(cfg *EngineConfig) { cfg.HistoryRetention = 24 * time.Hour })
	ctx := context.Background()

	_, err := h.engine.NotifyNow(ctx, confirmation("appt-1:confirmation"))
	require.NoError(t, err)

	sched := h.engine.scheduler.(*schedulerService)
	sched.cfg.Now = func() time.Time { return testNow.Add(48 * time.Hour) }
	sched.prune(ctx)

	attempts, err := h.engine.Attempts(ctx, "appt-1:confirmation")
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

// blockingAdapter holds its first send until release is closed.
type blockingAdapter struct {
	started chan struct{}
	release chan struct{}
	ctxErr  chan error
}

func newBlockingAdapter() *blockingAdapter {
	return &blockingAdapter{
		started: make(chan struct{}),
		release: make(chan struct{}),
		ctxErr:  make(chan error, 1),
	}
}

func (b *blockingAdapter) Send(ctx context.Context, _ string, _ *string, _ string) (string, error) {
	close(b.started)
	<-b.release
	b.ctxErr <- ctx.Err()
	return "held-1", nil
}

func TestScheduler_StopWaitsForInFlightSend(t *testing.T) {
	blocking := newBlockingAdapter()
	h := newHarness(t, func(cfg *EngineConfig) { cfg.Channels[0].Adapter = blocking })
	h.addAppointment(t, "a1", 24*time.Hour, nil)
	ctx := context.Background()

	require.NoError(t, h.engine.Start(ctx))
	select {
	case <-blocking.started:
	case <-time.After(5 * time.Second):
		t.Fatal("reminder send never started")
	}

	stopped := make(chan struct{})
	go func() {
		h.engine.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("Stop returned while a send was in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(blocking.release)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after the send finished")
	}

	assert.NoError(t, <-blocking.ctxErr)
	assert.True(t, h.reminderSent(t, "a1"))
	attempts, err := h.engine.Attempts(ctx, entity.ReminderDedupKey("a1"))
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, constant.DeliverySent, attempts[0].Status)
	assert.Equal(t, constant.ChannelSMS, attempts[0].Channel)

	_, err = h.engine.NotifyNow(ctx, confirmation("appt-1:confirmation"))
	assert.ErrorIs(t, err, appErrors.ErrEngineStopped)
}
