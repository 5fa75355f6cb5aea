package service

import (
	"context"
	"testing"
	"time"

	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	"notifier/internal/infrastructure/database/sqlite"
	"notifier/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_RecordAndStats(t *testing.T) {
	db := newTestDB(t)
	h := NewHistoryService(sqlite.NewAttemptRepository(db), func() time.Time { return testNow }, logger.NewNop())
	ctx := context.Background()

	record := func(key string, kind constant.Kind, ch constant.Channel, status constant.DeliveryStatus) *entity.DeliveryAttempt {
		a := &entity.DeliveryAttempt{DedupKey: key, Kind: kind, Channel: ch, Destination: "+15551234567", RenderedBody: "b", Status: status, Tries: 1}
		require.NoError(t, h.Record(ctx, a))
		return a
	}
	first := record("k1", constant.KindAppointmentConfirmation, constant.ChannelSMS, constant.DeliveryFailed)
	second := record("k1", constant.KindAppointmentConfirmation, constant.ChannelEmail, constant.DeliverySent)
	record("k2", constant.KindAppointmentConfirmation, constant.ChannelSMS, constant.DeliverySent)

	assert.Less(t, first.ID, second.ID)
	assert.True(t, first.Timestamp.Equal(testNow))
	assert.Error(t, h.Record(ctx, first), "recorded attempts are immutable")

	ok, err := h.HasSucceeded(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.HasSucceeded(ctx, "k3")
	require.NoError(t, err)
	assert.False(t, ok)

	stats, err := h.Stats(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []DeliveryStat{
		{Kind: constant.KindAppointmentConfirmation, Channel: constant.ChannelEmail, Sent: 1},
		{Kind: constant.KindAppointmentConfirmation, Channel: constant.ChannelSMS, Sent: 1, Failed: 1},
	}, stats)

	recent, err := h.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "k2", recent[0].DedupKey)
}

func TestHistory_SecondSentRowRejected(t *testing.T) {
	db := newTestDB(t)
	h := NewHistoryService(sqlite.NewAttemptRepository(db), nil, logger.NewNop())
	ctx := context.Background()

	sent := func() *entity.DeliveryAttempt {
		return &entity.DeliveryAttempt{DedupKey: "k1", Kind: constant.KindPaymentConfirmation, Channel: constant.ChannelEmail, Status: constant.DeliverySent}
	}
	require.NoError(t, h.Record(ctx, sent()))
	assert.Error(t, h.Record(ctx, sent()))

	attempts, err := h.Attempts(ctx, "k1")
	require.NoError(t, err)
	assert.Len(t, attempts, 1)
}
