package repository

import (
	"context"
	"notifier/internal/domain/entity"
	"time"
)

// AppointmentRepository is the engine's view of the appointment store.
type AppointmentRepository interface {
	// ListDueForReminder returns remindable appointments scheduled within [windowStart, windowEnd]
	// that have not been reminded yet.
	ListDueForReminder(ctx context.Context, windowStart, windowEnd time.Time) ([]*entity.Appointment, error)
	// MarkReminderSent sets the reminder flag. Calling it again is a no-op.
	MarkReminderSent(ctx context.Context, appointmentID string) error
	// FindByID retrieves an appointment by its ID.
	FindByID(ctx context.Context, appointmentID string) (*entity.Appointment, error)
	// Save creates or replaces an appointment. Used by the booking side and by tests.
	Save(ctx context.Context, appointment *entity.Appointment) error
}
