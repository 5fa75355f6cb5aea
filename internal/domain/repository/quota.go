package repository

import (
	"context"
	"notifier/internal/domain/constant"
)

// PeriodRef points at one quota counter.
type PeriodRef struct {
	Kind constant.PeriodKind
	Key  string
}

// QuotaRepository defines the interface for persisted quota counters.
type QuotaRepository interface {
	// Count returns the counter value, 0 when the counter was never created.
	Count(ctx context.Context, channel constant.Channel, period PeriodRef) (int, error)
	// Increment adds 1 to every given counter in one transaction, creating missing counters.
	Increment(ctx context.Context, channel constant.Channel, periods ...PeriodRef) error
}
