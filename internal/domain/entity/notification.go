package entity

import "notifier/internal/domain/constant"

// Destination holds the raw addresses a recipient can be reached at.
type Destination struct {
	Phone      string
	Email      string
	LineUserID string
	Name       string
}

// NotificationRequest is the intent to notify one recipient about one event.
// It is never persisted; only the resulting DeliveryAttempts are.
type NotificationRequest struct {
	Kind              constant.Kind
	ChannelPreference []constant.Channel
	Destination       Destination
	Payload           map[string]string
	DedupKey          string
}

// ReminderDedupKey builds the dedup key for an appointment reminder.
func ReminderDedupKey(appointmentID string) string {
	return appointmentID + ":reminder"
}
