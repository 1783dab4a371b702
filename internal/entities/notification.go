package entities

type TemplateKind string

const (
	TemplateBookingConfirmed TemplateKind = "booking_confirmed"
	TemplateBookingCancelled TemplateKind = "booking_cancelled"
)

// SendNotification is the command consumed by the external mailer.
type SendNotification struct {
	Header EventHeader `json:"header"`

	Recipient string            `json:"recipient"`
	Template  TemplateKind      `json:"template"`
	Data      map[string]string `json:"data"`
}
