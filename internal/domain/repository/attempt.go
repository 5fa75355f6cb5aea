package repository

import (
	"context"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	"time"
)

// KindStat aggregates attempts per kind, channel and status.
type KindStat struct {
	Kind    constant.Kind
	Channel constant.Channel
	Status  constant.DeliveryStatus
	Count   int64
}

// AttemptRepository defines the interface for the append-only delivery history.
type AttemptRepository interface {
	// Append inserts a new attempt and fills in its ID. Existing rows are never updated.
	Append(ctx context.Context, attempt *entity.DeliveryAttempt) error
	// ExistsSent reports whether a Sent attempt exists for the dedup key.
	ExistsSent(ctx context.Context, dedupKey string) (bool, error)
	// FindByDedupKey returns every attempt for the dedup key, oldest first.
	FindByDedupKey(ctx context.Context, dedupKey string) ([]*entity.DeliveryAttempt, error)
	// FindRecent returns the newest attempts, newest first.
	FindRecent(ctx context.Context, limit int) ([]*entity.DeliveryAttempt, error)
	// CountByKind aggregates attempts for the stats view.
	CountByKind(ctx context.Context) ([]KindStat, error)
	// DeleteOlderThan removes attempts older than threshold and returns how many were removed.
	DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error)
}
