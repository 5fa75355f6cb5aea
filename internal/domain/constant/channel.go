package constant

// Channel names one outbound delivery route (one provider).
type Channel string

const (
	ChannelSMS    Channel = "sms"     // Twilio
	ChannelSMSSNS Channel = "sms_sns" // AWS SNS
	ChannelEmail  Channel = "email"   // Brevo
	ChannelLine   Channel = "line"    // LINE push
)

func (c Channel) String() string {
	return string(c)
}

// Shape is the content form a channel accepts.
type Shape int

const (
	// ShapeSMS is a plain text body addressed to an E.164 phone number.
	ShapeSMS Shape = iota
	// ShapeEmail is a subject plus HTML body addressed to an email address.
	ShapeEmail
	// ShapeLine is a plain text body addressed to a LINE user ID.
	ShapeLine
)

func (s Shape) String() string {
	switch s {
	case ShapeEmail:
		return "email"
	case ShapeLine:
		return "line"
	default:
		return "sms"
	}
}
