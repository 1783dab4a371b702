package issuer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"

	"ticketing/internal/entities"
)

const (
	ticketNumberPrefix = "TKT-"
	ticketNumberLength = 10

	defaultMaxAttempts = 5
)

//go:generate mockgen -destination=mocks/mock_tickets_store.go -package=mocks ticketing/internal/application/issuer TicketsStore
type TicketsStore interface {
	InsertTicket(ctx context.Context, t entities.Ticket) (bool, error)
}

type IDGenerator interface {
	NewID() string
}

// Issuer mints tickets. It never touches inventory; the caller reserves
// units before minting.
type Issuer struct {
	store       TicketsStore
	ids         IDGenerator
	maxAttempts int
}

func NewIssuer(store TicketsStore, ids IDGenerator) *Issuer {
	return &Issuer{
		store:       store,
		ids:         ids,
		maxAttempts: defaultMaxAttempts,
	}
}

func (i *Issuer) WithMaxAttempts(n int) *Issuer {
	if n > 0 {
		i.maxAttempts = n
	}
	return i
}

func (i *Issuer) Mint(ctx context.Context, bookingID, ticketTypeID uuid.UUID) (entities.Ticket, error) {
	for attempt := 1; attempt <= i.maxAttempts; attempt++ {
		ticket := entities.Ticket{
			ID:           uuid.New(),
			BookingID:    bookingID,
			TicketTypeID: ticketTypeID,
			Number:       TicketNumber(i.ids.NewID()),
			CreatedAt:    time.Now().UTC(),
		}

		inserted, err := i.store.InsertTicket(ctx, ticket)
		if err != nil {
			return entities.Ticket{}, fmt.Errorf("failed to mint ticket: %w", err)
		}
		if inserted {
			return ticket, nil
		}

		log.FromContext(ctx).
			WithField("ticket_number", ticket.Number).
			WithField("attempt", attempt).
			Warn("Ticket number collision")
	}

	return entities.Ticket{}, entities.NewConflict(
		fmt.Sprintf("could not allocate a unique ticket number in %d attempts", i.maxAttempts),
	).WithDetail("booking_id", bookingID.String())
}

// TicketNumber turns an opaque identifier into a printable ticket number.
func TicketNumber(id string) string {
	id = strings.ToUpper(id)
	if len(id) > ticketNumberLength {
		id = id[:ticketNumberLength]
	}
	return ticketNumberPrefix + id
}
