// Package retry runs an operation a bounded number of times with a fixed or
// linearly increasing delay between tries.
package retry

import (
	"context"
	"time"
)

// Policy bounds a retry loop.
type Policy struct {
	MaxAttempts int           // total tries, including the first one
	Delay       time.Duration // base delay before the second try
	Linear      bool          // when true the n-th retry waits n*Delay
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Backoff returns the wait before try number attempt (1-based, attempt >= 2).
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 2 {
		return 0
	}
	if p.Linear {
		return time.Duration(attempt-1) * p.Delay
	}
	return p.Delay
}

// Do calls fn until it succeeds, returns an error for which retryable reports
// false, or MaxAttempts is reached. It returns the number of tries made and
// the last error.
func Do(ctx context.Context, p Policy, sleep SleepFunc, retryable func(error) bool, fn func(attempt int) error) (int, error) {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if sleep == nil {
		sleep = Sleep
	}

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			if serr := sleep(ctx, p.Backoff(attempt)); serr != nil {
				return attempt - 1, err
			}
		}
		err = fn(attempt)
		if err == nil {
			return attempt, nil
		}
		if !retryable(err) {
			return attempt, err
		}
	}
	return p.MaxAttempts, err
}
