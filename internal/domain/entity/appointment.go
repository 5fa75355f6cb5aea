package entity

import (
	"notifier/internal/domain/constant"
	"time"
)

// Appointment is the slice of the appointment record the engine reads.
// The record is owned by the booking application; only ReminderSent and
// ReminderSentAt are written here.
type Appointment struct {
	ID             string                     `gorm:"column:id;primaryKey"`
	CustomerName   string                     `gorm:"column:customer_name"`
	Phone          string                     `gorm:"column:phone"`
	Email          string                     `gorm:"column:email"`
	LineUserID     string                     `gorm:"column:line_user_id"`
	ArtistName     string                     `gorm:"column:artist_name"`
	Service        string                     `gorm:"column:service"`
	ScheduledAt    time.Time                  `gorm:"column:scheduled_at;index"`
	Status         constant.AppointmentStatus `gorm:"column:status;index"`
	ReminderSent   bool                       `gorm:"column:reminder_sent;not null;default:false"`
	ReminderSentAt *time.Time                 `gorm:"column:reminder_sent_at"`
}

// TableName specifies the table name for the Appointment entity.
func (Appointment) TableName() string {
	return "appointment"
}
