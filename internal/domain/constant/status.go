package constant

// DeliveryStatus is the result of one delivery attempt.
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// AppointmentStatus mirrors the status column owned by the appointment store.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Remindable reports whether an appointment in this status may still get a reminder.
func (s AppointmentStatus) Remindable() bool {
	return s != AppointmentCompleted && s != AppointmentCancelled
}

// PeriodKind is the quota bucket size.
type PeriodKind string

const (
	PeriodDaily   PeriodKind = "daily"
	PeriodMonthly PeriodKind = "monthly"
)

// OutcomeStatus is what the orchestrator reports back for one request.
type OutcomeStatus string

const (
	OutcomeSent        OutcomeStatus = "sent"
	OutcomeAlreadySent OutcomeStatus = "already_sent"
	OutcomeFailed      OutcomeStatus = "failed"
)
