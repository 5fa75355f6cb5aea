package template

import "notifier/internal/domain/constant"

const emailLayoutStart = `<html>
  <body style="font-family: sans-serif; line-height: 1.6; color: #333;">
    <h2 style="color: #D4AF37;">{{.business_name}}</h2>
`

const emailLayoutEnd = `    <p>Best regards,<br>{{.business_name}} Team</p>
  </body>
</html>`

var builtinTemplates = []Template{
	{
		Kind:     constant.KindAppointmentConfirmation,
		Required: []string{"customer_name", "date", "time"},
		Optional: []string{"artist_name", "service"},
		Text: `Hi {{.customer_name}}! Your appointment at {{.business_name}} is confirmed.
Date: {{.date}}
Time: {{.time}}
{{- with .artist_name}}
Artist: {{.}}{{end}}
{{- with .service}}
Service: {{.}}{{end}}
Please arrive 10 minutes early.{{with .business_phone}} Questions? Call us at {{.}}.{{end}}
Reply STOP to opt out.`,
		Subject: `Appointment Confirmation - {{.business_name}}`,
		HTML: emailLayoutStart + `    <p>Dear {{.customer_name}},</p>
    <p>Your appointment has been confirmed!</p>
    <div style="background: #f4f4f4; padding: 15px; border-radius: 5px;">
      <p><strong>Date:</strong> {{.date}}</p>
      <p><strong>Time:</strong> {{.time}}</p>
{{- with .service}}
      <p><strong>Service:</strong> {{.}}</p>{{end}}
{{- with .artist_name}}
      <p><strong>Artist:</strong> {{.}}</p>{{end}}
    </div>
    <p>Please arrive 5-10 minutes early.</p>
` + emailLayoutEnd,
	},
	{
		Kind:     constant.KindAppointmentReminder,
		Required: []string{"customer_name", "date", "time"},
		Optional: []string{"artist_name"},
		Text: `Reminder from {{.business_name}}: Hi {{.customer_name}}, your appointment is tomorrow.
Date: {{.date}}
Time: {{.time}}
{{- with .artist_name}}
Artist: {{.}}{{end}}
Please arrive 10 minutes early. If you need to reschedule, call us ASAP.{{with .business_phone}} {{.}}{{end}}
Reply STOP to opt out.`,
		Subject: `Reminder: Your Appointment Tomorrow - {{.business_name}}`,
		HTML: emailLayoutStart + `    <p>Hello {{.customer_name}},</p>
    <p>This is a friendly reminder about your upcoming appointment!</p>
    <div style="background: #f4f4f4; padding: 15px; border-radius: 5px;">
      <p><strong>Date:</strong> {{.date}}</p>
      <p><strong>Time:</strong> {{.time}}</p>
{{- with .artist_name}}
      <p><strong>Artist:</strong> {{.}}</p>{{end}}
    </div>
` + emailLayoutEnd,
	},
	{
		Kind:     constant.KindAppointmentCancellation,
		Required: []string{"customer_name", "date", "time"},
		Text: `Hi {{.customer_name}}, your appointment at {{.business_name}} has been cancelled.
Date: {{.date}}
Time: {{.time}}
Want to reschedule?{{with .business_phone}} Call us at {{.}}.{{end}}`,
		Subject: `Appointment Cancelled - {{.business_name}}`,
		HTML: emailLayoutStart + `    <p>Hello {{.customer_name}},</p>
    <p>Your appointment on {{.date}} at {{.time}} has been cancelled.</p>
    <p>We would love to see you again. Reply to this email to reschedule.</p>
` + emailLayoutEnd,
	},
	{
		Kind:     constant.KindPaymentConfirmation,
		Required: []string{"customer_name", "amount", "payment_type"},
		Text: `Hi {{.customer_name}}! Payment received, thank you!
{{.payment_type}}: ${{.amount}}
Your receipt has been recorded.{{with .business_phone}} Questions? Call us at {{.}}.{{end}}
- {{.business_name}}`,
		Subject: `Payment Confirmation - {{.business_name}}`,
		HTML: emailLayoutStart + `    <p>Dear {{.customer_name}},</p>
    <p>Thank you for your payment!</p>
    <div style="background: #f4f4f4; padding: 15px; border-radius: 5px;">
      <p><strong>{{.payment_type}}:</strong> ${{.amount}}</p>
    </div>
` + emailLayoutEnd,
	},
	{
		Kind:     constant.KindPaymentReminder,
		Required: []string{"customer_name", "amount", "artist_name"},
		Text: `Hi {{.customer_name}}, a friendly reminder from {{.business_name}} about your remaining balance of ${{.amount}} (artist: {{.artist_name}}).{{with .business_phone}} Questions? Call us at {{.}}.{{end}}`,
		Subject: `Payment Reminder - {{.business_name}}`,
		HTML: emailLayoutStart + `    <p>Hello {{.customer_name}},</p>
    <p>We wanted to remind you about your remaining balance.</p>
    <div style="background: #f4f4f4; padding: 15px; border-radius: 5px;">
      <p><strong>Remaining Amount:</strong> ${{.amount}}</p>
      <p><strong>Artist:</strong> {{.artist_name}}</p>
    </div>
` + emailLayoutEnd,
	},
}
