package sqlite

import (
	"context"
	"errors"
	"fmt"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	"notifier/internal/domain/repository"
	"time"

	"gorm.io/gorm"
)

type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new instance of AppointmentRepository.
func NewAppointmentRepository(db *gorm.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

// ListDueForReminder returns remindable, not yet reminded appointments inside the window.
func (r *appointmentRepository) ListDueForReminder(ctx context.Context, windowStart, windowEnd time.Time) ([]*entity.Appointment, error) {
	var appointments []*entity.Appointment
	err := r.db.WithContext(ctx).
		Where("scheduled_at >= ? AND scheduled_at <= ?", windowStart.UTC(), windowEnd.UTC()).
		Where("reminder_sent = ?", false).
		Where("status NOT IN ?", []constant.AppointmentStatus{constant.AppointmentCompleted, constant.AppointmentCancelled}).
		Order("scheduled_at asc").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments due between %v and %v: %w", windowStart, windowEnd, err)
	}
	return appointments, nil
}

// MarkReminderSent sets the reminder flag once; later calls leave the first timestamp alone.
func (r *appointmentRepository) MarkReminderSent(ctx context.Context, appointmentID string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Appointment{}).
		Where("id = ? AND reminder_sent = ?", appointmentID, false).
		Updates(map[string]interface{}{
			"reminder_sent":    true,
			"reminder_sent_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark reminder sent for appointment %s: %w", appointmentID, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, appointmentID); err != nil {
			return err
		}
	}
	return nil
}

// FindByID retrieves an appointment by its ID.
func (r *appointmentRepository) FindByID(ctx context.Context, appointmentID string) (*entity.Appointment, error) {
	var appointment entity.Appointment
	if err := r.db.WithContext(ctx).Where("id = ?", appointmentID).First(&appointment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("appointment with ID %s not found: %w", appointmentID, err)
		}
		return nil, fmt.Errorf("failed to find appointment %s: %w", appointmentID, err)
	}
	return &appointment, nil
}

// Save creates or replaces an appointment.
func (r *appointmentRepository) Save(ctx context.Context, appointment *entity.Appointment) error {
	appointment.ScheduledAt = appointment.ScheduledAt.UTC()
	if appointment.Status == "" {
		appointment.Status = constant.AppointmentScheduled
	}
	if err := r.db.WithContext(ctx).Save(appointment).Error; err != nil {
		return fmt.Errorf("failed to save appointment %s: %w", appointment.ID, err)
	}
	return nil
}
