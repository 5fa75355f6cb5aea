package service

import (
	"context"
	"fmt"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	"notifier/internal/domain/repository"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
	"time"
)

type historyService struct {
	repo repository.AttemptRepository
	now  func() time.Time
	log  logger.Logger
}

// NewHistoryService creates a new instance of HistoryService implementation.
func NewHistoryService(repo repository.AttemptRepository, now func() time.Time, log logger.Logger) HistoryService {
	if now == nil {
		now = time.Now
	}
	return &historyService{repo: repo, now: now, log: log}
}

func (s *historyService) HasSucceeded(ctx context.Context, dedupKey string) (bool, error) {
	ok, err := s.repo.ExistsSent(ctx, dedupKey)
	if err != nil {
		return false, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	return ok, nil
}

func (s *historyService) Record(ctx context.Context, attempt *entity.DeliveryAttempt) error {
	if attempt.ID != 0 {
		return fmt.Errorf("%w: attempt %d is already recorded", appErrors.ErrInternalServer, attempt.ID)
	}
	if attempt.Timestamp.IsZero() {
		attempt.Timestamp = s.now().UTC()
	}
	if err := s.repo.Append(ctx, attempt); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	s.log.Debug(fmt.Sprintf("Recorded %s attempt %d for %s via %s", attempt.Status, attempt.ID, attempt.DedupKey, attempt.Channel))
	return nil
}

func (s *historyService) Attempts(ctx context.Context, dedupKey string) ([]*entity.DeliveryAttempt, error) {
	attempts, err := s.repo.FindByDedupKey(ctx, dedupKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	return attempts, nil
}

func (s *historyService) Recent(ctx context.Context, limit int) ([]*entity.DeliveryAttempt, error) {
	attempts, err := s.repo.FindRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	return attempts, nil
}

func (s *historyService) Stats(ctx context.Context) ([]DeliveryStat, error) {
	rows, err := s.repo.CountByKind(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}

	type key struct {
		kind    constant.Kind
		channel constant.Channel
	}
	index := make(map[key]int)
	var stats []DeliveryStat
	for _, row := range rows {
		k := key{row.Kind, row.Channel}
		i, ok := index[k]
		if !ok {
			i = len(stats)
			index[k] = i
			stats = append(stats, DeliveryStat{Kind: row.Kind, Channel: row.Channel})
		}
		switch row.Status {
		case constant.DeliverySent:
			stats[i].Sent += row.Count
		case constant.DeliveryFailed:
			stats[i].Failed += row.Count
		}
	}
	return stats, nil
}

func (s *historyService) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	if n > 0 {
		s.log.Info(fmt.Sprintf("Pruned %d delivery attempts older than %s", n, cutoff.Format(time.RFC3339)))
	}
	return n, nil
}
