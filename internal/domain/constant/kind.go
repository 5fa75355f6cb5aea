package constant

// Kind identifies the business event a notification is about.
type Kind string

const (
	KindAppointmentConfirmation Kind = "appointment_confirmation"
	KindAppointmentReminder     Kind = "appointment_reminder"
	KindAppointmentCancellation Kind = "appointment_cancellation"
	KindPaymentConfirmation     Kind = "payment_confirmation"
	KindPaymentReminder         Kind = "payment_reminder"
)

// Kinds lists every built-in kind.
func Kinds() []Kind {
	return []Kind{
		KindAppointmentConfirmation,
		KindAppointmentReminder,
		KindAppointmentCancellation,
		KindPaymentConfirmation,
		KindPaymentReminder,
	}
}

func (k Kind) String() string {
	return string(k)
}
