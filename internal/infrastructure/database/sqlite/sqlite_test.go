package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	"notifier/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), "silent")
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB(db) })
	return db
}

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestWithPragmas(t *testing.T) {
	assert.Equal(t, "a.db?_busy_timeout=5000&_journal_mode=WAL", withPragmas("a.db"))
	assert.Equal(t, "a.db?cache=shared&_busy_timeout=5000&_journal_mode=WAL", withPragmas("a.db?cache=shared"))
	assert.Equal(t, ":memory:", withPragmas(":memory:"))
}

func TestAttemptRepository(t *testing.T) {
	repo := NewAttemptRepository(newTestDB(t))
	ctx := context.Background()

	failed := &entity.DeliveryAttempt{DedupKey: "k1", Kind: constant.KindAppointmentReminder, Channel: constant.ChannelSMS, Status: constant.DeliveryFailed, Timestamp: base}
	require.NoError(t, repo.Append(ctx, failed))
	assert.Nil(t, failed.SentKey)

	sent := &entity.DeliveryAttempt{DedupKey: "k1", Kind: constant.KindAppointmentReminder, Channel: constant.ChannelEmail, Status: constant.DeliverySent, Timestamp: base.Add(time.Minute)}
	require.NoError(t, repo.Append(ctx, sent))
	require.NotNil(t, sent.SentKey)
	assert.Equal(t, "k1", *sent.SentKey)

	dup := &entity.DeliveryAttempt{DedupKey: "k1", Kind: constant.KindAppointmentReminder, Channel: constant.ChannelSMS, Status: constant.DeliverySent}
	assert.Error(t, repo.Append(ctx, dup))

	ok, err := repo.ExistsSent(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)

	attempts, err := repo.FindByDedupKey(ctx, "k1")
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, failed.ID, attempts[0].ID)
	assert.Equal(t, sent.ID, attempts[1].ID)

	stats, err := repo.CountByKind(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []repository.KindStat{
		{Kind: constant.KindAppointmentReminder, Channel: constant.ChannelEmail, Status: constant.DeliverySent, Count: 1},
		{Kind: constant.KindAppointmentReminder, Channel: constant.ChannelSMS, Status: constant.DeliveryFailed, Count: 1},
	}, stats)

	n, err := repo.DeleteOlderThan(ctx, base.Add(30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	recent, err := repo.FindRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, sent.ID, recent[0].ID)
}

func TestQuotaRepository(t *testing.T) {
	repo := NewQuotaRepository(newTestDB(t))
	ctx := context.Background()
	daily := repository.PeriodRef{Kind: constant.PeriodDaily, Key: "2024-05-01"}
	monthly := repository.PeriodRef{Kind: constant.PeriodMonthly, Key: "2024-05"}

	n, err := repo.Count(ctx, constant.ChannelSMS, daily)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, repo.Increment(ctx, constant.ChannelSMS, daily, monthly))
	require.NoError(t, repo.Increment(ctx, constant.ChannelSMS, daily, monthly))
	require.NoError(t, repo.Increment(ctx, constant.ChannelEmail, daily))

	n, err = repo.Count(ctx, constant.ChannelSMS, daily)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = repo.Count(ctx, constant.ChannelSMS, monthly)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = repo.Count(ctx, constant.ChannelEmail, daily)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAppointmentRepository(t *testing.T) {
	repo := NewAppointmentRepository(newTestDB(t))
	ctx := context.Background()

	save := func(id string, at time.Time, status constant.AppointmentStatus) {
		require.NoError(t, repo.Save(ctx, &entity.Appointment{ID: id, CustomerName: id, ScheduledAt: at, Status: status}))
	}
	save("due", base.Add(24*time.Hour), constant.AppointmentScheduled)
	save("edge-start", base.Add(23*time.Hour), constant.AppointmentScheduled)
	save("edge-end", base.Add(25*time.Hour), "")
	save("early", base.Add(22*time.Hour), constant.AppointmentScheduled)
	save("late", base.Add(26*time.Hour), constant.AppointmentScheduled)
	save("cancelled", base.Add(24*time.Hour), constant.AppointmentCancelled)
	save("completed", base.Add(24*time.Hour), constant.AppointmentCompleted)

	// A non-UTC location must select the same instants.
	tokyo := time.FixedZone("JST", 9*3600)
	due, err := repo.ListDueForReminder(ctx, base.Add(23*time.Hour).In(tokyo), base.Add(25*time.Hour).In(tokyo))
	require.NoError(t, err)
	var ids []string
	for _, a := range due {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"edge-start", "due", "edge-end"}, ids)

	require.NoError(t, repo.MarkReminderSent(ctx, "due"))
	first, err := repo.FindByID(ctx, "due")
	require.NoError(t, err)
	assert.True(t, first.ReminderSent)
	require.NotNil(t, first.ReminderSentAt)

	require.NoError(t, repo.MarkReminderSent(ctx, "due"))
	second, err := repo.FindByID(ctx, "due")
	require.NoError(t, err)
	assert.True(t, first.ReminderSentAt.Equal(*second.ReminderSentAt))

	due, err = repo.ListDueForReminder(ctx, base.Add(23*time.Hour), base.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Len(t, due, 2)

	assert.ErrorIs(t, repo.MarkReminderSent(ctx, "missing"), gorm.ErrRecordNotFound)
}

func TestStateRepository(t *testing.T) {
	repo := NewStateRepository(newTestDB(t))
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, "last_checked_at")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Put(ctx, "last_checked_at", "a"))
	require.NoError(t, repo.Put(ctx, "last_checked_at", "b"))
	v, ok, err := repo.Get(ctx, "last_checked_at")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", v)
}
