package entities

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketType is a priced admission category with its own inventory pool.
// Remaining is the only availability gate: 0 <= Remaining <= Quantity.
type TicketType struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	EventID   uuid.UUID       `json:"event_id" db:"event_id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Remaining int             `json:"remaining" db:"remaining"`
}

func NewTicketType(eventID uuid.UUID, name string, price decimal.Decimal, quantity int) (TicketType, error) {
	if eventID == uuid.Nil {
		return TicketType{}, NewInvalidInput("event_id", "event must be set")
	}
	if name == "" {
		return TicketType{}, NewInvalidInput("name", "name must be set")
	}
	if price.IsNegative() {
		return TicketType{}, NewInvalidInput("price", "price must not be negative")
	}
	if quantity < 1 {
		return TicketType{}, NewInvalidInput("quantity", "quantity must be at least 1")
	}

	return TicketType{
		ID:        uuid.New(),
		EventID:   eventID,
		Name:      name,
		Price:     price.Round(2),
		Quantity:  quantity,
		Remaining: quantity,
	}, nil
}

func (t TicketType) Sold() int {
	return t.Quantity - t.Remaining
}
