package service

import (
	"context"
	"time"
)

// SchedulerStatus describes the reminder scheduler.
type SchedulerStatus struct {
	Running       bool
	Interval      time.Duration
	LastCheckedAt *time.Time
	LastResult    *ScanResult
	LastError     string
}

// SchedulerService defines the interface for the periodic reminder scan.
type SchedulerService interface {
	// Start runs a scan right away and then on every interval.
	Start(ctx context.Context) error
	// RunNow runs a scan outside the schedule. Scans never overlap.
	RunNow(ctx context.Context) (ScanResult, error)
	// Status reports whether the scheduler runs and what the last scan did.
	Status(ctx context.Context) (SchedulerStatus, error)
	// Stop cancels future scans and waits for a running one to finish.
	Stop()
}
