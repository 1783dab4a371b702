package entities

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	// BookingStatusRefunded is set only by external payment reconciliation.
	BookingStatusRefunded BookingStatus = "REFUNDED"
)

type Attendee struct {
	Name  string `json:"name" db:"attendee_name" validate:"required"`
	Email string `json:"email" db:"attendee_email" validate:"required,email"`
	Phone string `json:"phone" db:"attendee_phone" validate:"required"`
}

// Normalized returns the attendee with surrounding whitespace removed, or
// the first field that is missing or malformed.
func (a Attendee) Normalized() (Attendee, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.TrimSpace(a.Email)
	a.Phone = strings.TrimSpace(a.Phone)

	err := validate.Struct(a)
	if err == nil {
		return a, nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		field := "attendee." + strings.ToLower(fieldErrs[0].Field())
		if fieldErrs[0].Tag() == "required" {
			return Attendee{}, NewInvalidInput(field, field+" is required")
		}
		return Attendee{}, NewInvalidInput(field, field+" is malformed")
	}
	return Attendee{}, NewInvalidInput("attendee", err.Error())
}

type BookingItem struct {
	TicketTypeID uuid.UUID `json:"ticket_type_id"`
	Quantity     int       `json:"quantity"`
}

type CreateBookingRequest struct {
	EventID  uuid.UUID
	UserID   uuid.UUID
	Attendee Attendee
	Items    []BookingItem
}

// Normalized validates the request and returns it with a trimmed attendee
// and the items merged per ticket type and sorted by ticket type id, the
// order reservations are taken in.
func (r CreateBookingRequest) Normalized() (CreateBookingRequest, error) {
	if r.UserID == uuid.Nil {
		return CreateBookingRequest{}, NewInvalidInput("user_id", "user must be set")
	}
	attendee, err := r.Attendee.Normalized()
	if err != nil {
		return CreateBookingRequest{}, err
	}
	if len(r.Items) == 0 {
		return CreateBookingRequest{}, NewInvalidInput("items", "at least one ticket item is required")
	}

	merged := make(map[uuid.UUID]int, len(r.Items))
	for _, item := range r.Items {
		if item.TicketTypeID == uuid.Nil {
			return CreateBookingRequest{}, NewInvalidInput("items.ticket_type_id", "ticket type is required")
		}
		if item.Quantity < 1 {
			return CreateBookingRequest{}, NewInvalidInput("items.quantity", "quantity must be at least 1").
				WithDetail("ticket_type_id", item.TicketTypeID.String())
		}
		merged[item.TicketTypeID] += item.Quantity
	}

	items := make([]BookingItem, 0, len(merged))
	for id, quantity := range merged {
		items = append(items, BookingItem{TicketTypeID: id, Quantity: quantity})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].TicketTypeID.String() < items[j].TicketTypeID.String()
	})

	r.Attendee = attendee
	r.Items = items
	return r, nil
}

type Booking struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	EventID     uuid.UUID       `json:"event_id" db:"event_id"`
	UserID      uuid.UUID       `json:"user_id" db:"user_id"`
	Attendee    Attendee        `json:"attendee"`
	Status      BookingStatus   `json:"status" db:"status"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	PaymentRef  string          `json:"payment_ref" db:"payment_ref"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`

	Tickets []Ticket `json:"tickets,omitempty"`
}

// BookingPass is the machine-decodable content of a booking confirmation.
type BookingPass struct {
	BookingID uuid.UUID `json:"booking_id"`
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
}

func (b Booking) Pass() BookingPass {
	return BookingPass{
		BookingID: b.ID,
		EventID:   b.EventID,
		UserID:    b.UserID,
	}
}

// TicketUnitsByType groups tickets by ticket type.
func TicketUnitsByType(tickets []Ticket) map[uuid.UUID]int {
	units := make(map[uuid.UUID]int)
	for _, t := range tickets {
		units[t.TicketTypeID]++
	}
	return units
}
