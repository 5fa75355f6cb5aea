package service

import (
	"context"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/repository"
	"time"
)

// Caps bounds how many messages a channel may send.
type Caps struct {
	Daily          int
	Monthly        int
	CostPerMessage float64
}

// UsageSnapshot is the current usage of one channel.
type UsageSnapshot struct {
	Channel       constant.Channel
	DailyCount    int
	DailyCap      int
	MonthlyCount  int
	MonthlyCap    int
	EstimatedCost float64
}

// Reservation is an in-flight claim on one send slot of a channel.
// It must be followed by exactly one Commit or Release.
type Reservation struct {
	Channel constant.Channel
	Daily   repository.PeriodRef
	Monthly repository.PeriodRef
}

// QuotaService enforces the daily and monthly caps of every channel.
type QuotaService interface {
	// Reserve claims a slot when neither counter for now's periods is at its cap.
	// ok is false when the channel is exhausted. Nothing is persisted.
	Reserve(ctx context.Context, channel constant.Channel, now time.Time) (Reservation, bool, error)
	// Commit persists the reserved send on both counters and frees the slot.
	Commit(ctx context.Context, r Reservation) error
	// Release frees the slot without counting it.
	Release(r Reservation)
	// Usage reports the counters of the current periods.
	Usage(ctx context.Context, channel constant.Channel) (UsageSnapshot, error)
	// UsageAll reports every registered channel, in registration order.
	UsageAll(ctx context.Context) ([]UsageSnapshot, error)
}
