package service

import (
	"context"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	"time"
)

// DeliveryStat counts sent and failed attempts for one kind on one channel.
type DeliveryStat struct {
	Kind    constant.Kind
	Channel constant.Channel
	Sent    int64
	Failed  int64
}

// HistoryService defines the interface for the delivery history.
type HistoryService interface {
	// HasSucceeded reports whether a Sent attempt exists for the dedup key.
	HasSucceeded(ctx context.Context, dedupKey string) (bool, error)
	// Record appends an attempt. Existing attempts are never changed.
	Record(ctx context.Context, attempt *entity.DeliveryAttempt) error
	// Attempts returns the attempts for the dedup key in the order they were recorded.
	Attempts(ctx context.Context, dedupKey string) ([]*entity.DeliveryAttempt, error)
	// Recent returns the newest attempts across all keys.
	Recent(ctx context.Context, limit int) ([]*entity.DeliveryAttempt, error)
	// Stats aggregates attempts per kind and channel.
	Stats(ctx context.Context) ([]DeliveryStat, error)
	// PruneOlderThan removes attempts recorded before cutoff.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
