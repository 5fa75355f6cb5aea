package sqlite

import (
	"context"
	"fmt"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	"notifier/internal/domain/repository"
	"time"

	"gorm.io/gorm"
)

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository creates a new instance of AttemptRepository.
func NewAttemptRepository(db *gorm.DB) repository.AttemptRepository {
	return &attemptRepository{db: db}
}

// Append inserts a new attempt. A Sent attempt also claims the unique sent_key.
func (r *attemptRepository) Append(ctx context.Context, attempt *entity.DeliveryAttempt) error {
	if attempt.Timestamp.IsZero() {
		attempt.Timestamp = time.Now().UTC()
	}
	if attempt.Status == constant.DeliverySent {
		key := attempt.DedupKey
		attempt.SentKey = &key
	} else {
		attempt.SentKey = nil
	}
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to append attempt for %s: %w", attempt.DedupKey, err)
	}
	return nil
}

// ExistsSent reports whether a Sent attempt exists for the dedup key.
func (r *attemptRepository) ExistsSent(ctx context.Context, dedupKey string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.DeliveryAttempt{}).
		Where("sent_key = ?", dedupKey).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check sent attempt for %s: %w", dedupKey, err)
	}
	return count > 0, nil
}

// FindByDedupKey returns every attempt for the dedup key, oldest first.
func (r *attemptRepository) FindByDedupKey(ctx context.Context, dedupKey string) ([]*entity.DeliveryAttempt, error) {
	var attempts []*entity.DeliveryAttempt
	if err := r.db.WithContext(ctx).Where("dedup_key = ?", dedupKey).Order("id asc").Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to find attempts for %s: %w", dedupKey, err)
	}
	return attempts, nil
}

// FindRecent returns the newest attempts, newest first.
func (r *attemptRepository) FindRecent(ctx context.Context, limit int) ([]*entity.DeliveryAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	var attempts []*entity.DeliveryAttempt
	if err := r.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to find recent attempts: %w", err)
	}
	return attempts, nil
}

// CountByKind aggregates attempts per kind, channel and status.
func (r *attemptRepository) CountByKind(ctx context.Context) ([]repository.KindStat, error) {
	var stats []repository.KindStat
	err := r.db.WithContext(ctx).
		Model(&entity.DeliveryAttempt{}).
		Select("kind, channel, status, count(*) as count").
		Group("kind, channel, status").
		Order("kind, channel, status").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate attempts: %w", err)
	}
	return stats, nil
}

// DeleteOlderThan removes attempts older than threshold.
func (r *attemptRepository) DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("timestamp < ?", threshold.UTC()).Delete(&entity.DeliveryAttempt{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete attempts older than %v: %w", threshold, res.Error)
	}
	return res.RowsAffected, nil
}
