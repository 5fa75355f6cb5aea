package service

import (
	"context"
	"time"
)

// ScanResult summarizes one reminder scan.
type ScanResult struct {
	Due         int
	Sent        int
	AlreadySent int
	Skipped     int
	Failed      int
}

// ReminderScanner finds appointments due for a reminder and notifies them.
type ReminderScanner interface {
	// Scan processes every appointment in the reminder window relative to now.
	// Per-appointment failures are counted, not returned.
	Scan(ctx context.Context, now time.Time) (ScanResult, error)
}
