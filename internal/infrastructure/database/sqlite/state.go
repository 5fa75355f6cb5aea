package sqlite

import (
	"context"
	"errors"
	"fmt"
	"notifier/internal/domain/entity"
	"notifier/internal/domain/repository"
	"time"

	"gorm.io/gorm"
)

type stateRepository struct {
	db *gorm.DB
}

// NewStateRepository creates a new instance of StateRepository.
func NewStateRepository(db *gorm.DB) repository.StateRepository {
	return &stateRepository{db: db}
}

// Get returns the stored value and whether the key exists.
func (r *stateRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var state entity.SchedulerState
	if err := r.db.WithContext(ctx).Where("state_key = ?", key).First(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read state %s: %w", key, err)
	}
	return state.Value, true, nil
}

// Put creates or replaces the value.
func (r *stateRepository) Put(ctx context.Context, key, value string) error {
	state := entity.SchedulerState{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Save(&state).Error; err != nil {
		return fmt.Errorf("failed to write state %s: %w", key, err)
	}
	return nil
}
