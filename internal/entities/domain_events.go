package entities

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is anything published on the event bus. Internal events skip
// the datalake and go straight to their own topic.
type DomainEvent interface {
	IsInternal() bool
}

type TicketRef struct {
	TicketID     uuid.UUID `json:"ticket_id"`
	TicketTypeID uuid.UUID `json:"ticket_type_id"`
	Number       string    `json:"number"`
}

type BookingConfirmed_v1 struct {
	Header EventHeader `json:"header"`

	BookingID     uuid.UUID   `json:"booking_id"`
	EventID       uuid.UUID   `json:"event_id"`
	UserID        uuid.UUID   `json:"user_id"`
	CustomerEmail string      `json:"customer_email"`
	TotalAmount   string      `json:"total_amount"`
	PaymentRef    string      `json:"payment_ref"`
	Tickets       []TicketRef `json:"tickets"`
	ConfirmedAt   time.Time   `json:"confirmed_at"`
}

func (e BookingConfirmed_v1) IsInternal() bool {
	return false
}

type ReleasedUnits struct {
	TicketTypeID uuid.UUID `json:"ticket_type_id"`
	Quantity     int       `json:"quantity"`
}

type BookingCancelled_v1 struct {
	Header EventHeader `json:"header"`

	BookingID   uuid.UUID       `json:"booking_id"`
	EventID     uuid.UUID       `json:"event_id"`
	CancelledBy uuid.UUID       `json:"cancelled_by"`
	Released    []ReleasedUnits `json:"released"`
	CancelledAt time.Time       `json:"cancelled_at"`
}

func (e BookingCancelled_v1) IsInternal() bool {
	return false
}

type TicketAdmitted_v1 struct {
	Header EventHeader `json:"header"`

	TicketID     uuid.UUID `json:"ticket_id"`
	TicketNumber string    `json:"ticket_number"`
	TicketTypeID uuid.UUID `json:"ticket_type_id"`
	BookingID    uuid.UUID `json:"booking_id"`
	EventID      uuid.UUID `json:"event_id"`
	UsedAt       time.Time `json:"used_at"`
}

func (e TicketAdmitted_v1) IsInternal() bool {
	return false
}

// AttendanceReadModelUpdated_v1 is emitted after the attendance read model
// of an event changes.
type AttendanceReadModelUpdated_v1 struct {
	Header EventHeader `json:"header"`

	EventID uuid.UUID `json:"event_id"`
}

func (e AttendanceReadModelUpdated_v1) IsInternal() bool {
	return true
}
