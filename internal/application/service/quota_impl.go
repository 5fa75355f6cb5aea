package service

import (
	"context"
	"fmt"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/repository"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
	"sync"
	"time"
)

const (
	dailyKeyLayout   = "2006-01-02"
	monthlyKeyLayout = "2006-01"
)

type channelQuota struct {
	caps     Caps
	mu       sync.Mutex
	inFlight map[repository.PeriodRef]int
}

type quotaService struct {
	repo     repository.QuotaRepository
	order    []constant.Channel
	channels map[constant.Channel]*channelQuota
	loc      *time.Location
	now      func() time.Time
	log      logger.Logger
}

// NewQuotaService creates a quota tracker for the given channels. Period keys
// are computed in loc.
func NewQuotaService(
	repo repository.QuotaRepository,
	caps map[constant.Channel]Caps,
	order []constant.Channel,
	loc *time.Location,
	now func() time.Time,
	log logger.Logger,
) QuotaService {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	channels := make(map[constant.Channel]*channelQuota, len(caps))
	for ch, c := range caps {
		channels[ch] = &channelQuota{caps: c, inFlight: make(map[repository.PeriodRef]int)}
	}
	return &quotaService{
		repo:     repo,
		order:    order,
		channels: channels,
		loc:      loc,
		now:      now,
		log:      log,
	}
}

func (s *quotaService) periods(t time.Time) (repository.PeriodRef, repository.PeriodRef) {
	local := t.In(s.loc)
	return repository.PeriodRef{Kind: constant.PeriodDaily, Key: local.Format(dailyKeyLayout)},
		repository.PeriodRef{Kind: constant.PeriodMonthly, Key: local.Format(monthlyKeyLayout)}
}

func (s *quotaService) channel(ch constant.Channel) (*channelQuota, error) {
	q, ok := s.channels[ch]
	if !ok {
		return nil, fmt.Errorf("%w: %s", appErrors.ErrUnknownChannel, ch)
	}
	return q, nil
}

// Reserve checks persisted counts plus in-flight reservations against both caps
// while holding the channel lock.
func (s *quotaService) Reserve(ctx context.Context, ch constant.Channel, now time.Time) (Reservation, bool, error) {
	q, err := s.channel(ch)
	if err != nil {
		return Reservation{}, false, err
	}
	daily, monthly := s.periods(now)

	q.mu.Lock()
	defer q.mu.Unlock()

	dailyCount, err := s.repo.Count(ctx, ch, daily)
	if err != nil {
		return Reservation{}, false, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	if dailyCount+q.inFlight[daily] >= q.caps.Daily {
		s.log.Debug(fmt.Sprintf("Daily quota reached for %s (%d/%d)", ch, dailyCount, q.caps.Daily))
		return Reservation{}, false, nil
	}
	monthlyCount, err := s.repo.Count(ctx, ch, monthly)
	if err != nil {
		return Reservation{}, false, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	if monthlyCount+q.inFlight[monthly] >= q.caps.Monthly {
		s.log.Debug(fmt.Sprintf("Monthly quota reached for %s (%d/%d)", ch, monthlyCount, q.caps.Monthly))
		return Reservation{}, false, nil
	}

	q.inFlight[daily]++
	q.inFlight[monthly]++
	return Reservation{Channel: ch, Daily: daily, Monthly: monthly}, true, nil
}

// Commit increments both counters before freeing the slot, so the send is
// always covered by either the persisted count or the in-flight count.
func (s *quotaService) Commit(ctx context.Context, r Reservation) error {
	defer s.Release(r)
	if err := s.repo.Increment(ctx, r.Channel, r.Daily, r.Monthly); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	return nil
}

func (s *quotaService) Release(r Reservation) {
	q, err := s.channel(r.Channel)
	if err != nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, p := range []repository.PeriodRef{r.Daily, r.Monthly} {
		if q.inFlight[p] <= 1 {
			delete(q.inFlight, p)
			continue
		}
		q.inFlight[p]--
	}
}

func (s *quotaService) Usage(ctx context.Context, ch constant.Channel) (UsageSnapshot, error) {
	q, err := s.channel(ch)
	if err != nil {
		return UsageSnapshot{}, err
	}
	daily, monthly := s.periods(s.now())

	dailyCount, err := s.repo.Count(ctx, ch, daily)
	if err != nil {
		return UsageSnapshot{}, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	monthlyCount, err := s.repo.Count(ctx, ch, monthly)
	if err != nil {
		return UsageSnapshot{}, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	return UsageSnapshot{
		Channel:       ch,
		DailyCount:    dailyCount,
		DailyCap:      q.caps.Daily,
		MonthlyCount:  monthlyCount,
		MonthlyCap:    q.caps.Monthly,
		EstimatedCost: float64(monthlyCount) * q.caps.CostPerMessage,
	}, nil
}

func (s *quotaService) UsageAll(ctx context.Context) ([]UsageSnapshot, error) {
	out := make([]UsageSnapshot, 0, len(s.order))
	for _, ch := range s.order {
		u, err := s.Usage(ctx, ch)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
