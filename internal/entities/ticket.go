package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Ticket struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	BookingID    uuid.UUID  `json:"booking_id" db:"booking_id"`
	TicketTypeID uuid.UUID  `json:"ticket_type_id" db:"ticket_type_id"`
	Number       string     `json:"number" db:"number"`
	UsedAt       *time.Time `json:"used_at,omitempty" db:"used_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

type TicketIdentifierKind int

const (
	TicketByID TicketIdentifierKind = iota + 1
	TicketByNumber
)

// TicketIdentifier is what a scanner presents: either a ticket id or its
// printed number.
type TicketIdentifier struct {
	Kind   TicketIdentifierKind
	ID     uuid.UUID
	Number string
}

func TicketIDIdentifier(id uuid.UUID) TicketIdentifier {
	return TicketIdentifier{Kind: TicketByID, ID: id}
}

func TicketNumberIdentifier(number string) TicketIdentifier {
	return TicketIdentifier{Kind: TicketByNumber, Number: strings.ToUpper(strings.TrimSpace(number))}
}

// ParseTicketIdentifier treats anything that parses as a UUID as a ticket id.
func ParseTicketIdentifier(s string) TicketIdentifier {
	if id, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
		return TicketIDIdentifier(id)
	}
	return TicketNumberIdentifier(s)
}

func (i TicketIdentifier) Valid() bool {
	switch i.Kind {
	case TicketByID:
		return i.ID != uuid.Nil
	case TicketByNumber:
		return i.Number != ""
	default:
		return false
	}
}

func (i TicketIdentifier) String() string {
	if i.Kind == TicketByID {
		return i.ID.String()
	}
	return i.Number
}

// TicketAdmission is the state a scan is decided on.
type TicketAdmission struct {
	Ticket        Ticket
	EventID       uuid.UUID
	EventStart    time.Time
	BookingStatus BookingStatus
}

// TicketUsage is what an attempt to admit a ticket found. A ticket is admitted
// only while its booking is CONFIRMED and it was not used before.
type TicketUsage struct {
	Admitted      bool
	UsedAt        *time.Time
	BookingStatus BookingStatus
}
