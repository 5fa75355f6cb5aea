package sqlite

import (
	"context"
	"errors"
	"fmt"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	"notifier/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type quotaRepository struct {
	db *gorm.DB
}

// NewQuotaRepository creates a new instance of QuotaRepository.
func NewQuotaRepository(db *gorm.DB) repository.QuotaRepository {
	return &quotaRepository{db: db}
}

// Count returns the counter value, 0 when the counter does not exist yet.
func (r *quotaRepository) Count(ctx context.Context, channel constant.Channel, period repository.PeriodRef) (int, error) {
	var counter entity.QuotaCounter
	err := r.db.WithContext(ctx).
		Where("channel = ? AND period_kind = ? AND period_key = ?", channel, period.Kind, period.Key).
		First(&counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read %s %s counter for %s: %w", period.Kind, period.Key, channel, err)
	}
	return counter.Count, nil
}

// Increment adds 1 to every counter in one transaction, creating missing counters.
func (r *quotaRepository) Increment(ctx context.Context, channel constant.Channel, periods ...repository.PeriodRef) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range periods {
			counter := entity.QuotaCounter{Channel: channel, PeriodKind: p.Kind, PeriodKey: p.Key, Count: 1}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "channel"}, {Name: "period_kind"}, {Name: "period_key"}},
				DoUpdates: clause.Assignments(map[string]interface{}{"sent_count": gorm.Expr("sent_count + 1")}),
			}).Create(&counter).Error
			if err != nil {
				return fmt.Errorf("failed to increment %s %s counter for %s: %w", p.Kind, p.Key, channel, err)
			}
		}
		return nil
	})
}
