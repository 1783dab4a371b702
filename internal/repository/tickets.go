package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ticketing/internal/entities"
)

type TicketsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewTicketsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *TicketsRepo {
	return &TicketsRepo{db: db, getter: getter}
}

const ticketColumns = `id, booking_id, ticket_type_id, number, used_at, created_at`

// InsertTicket stores a freshly minted ticket. It reports false, without an
// error, when the ticket number is already taken.
func (r *TicketsRepo) InsertTicket(ctx context.Context, t entities.Ticket) (bool, error) {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		INSERT INTO tickets (`+ticketColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (number) DO NOTHING`,
		t.ID,
		t.BookingID,
		t.TicketTypeID,
		t.Number,
		t.UsedAt,
		t.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert ticket: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert ticket: %w", err)
	}

	return rowsAffected == 1, nil
}

func (r *TicketsRepo) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]entities.Ticket, error) {
	var tickets []entities.Ticket
	err := sqlx.SelectContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &tickets,
		`SELECT `+ticketColumns+` FROM tickets WHERE booking_id = $1 ORDER BY created_at, number`,
		bookingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	return tickets, nil
}

type ticketAdmission struct {
	entities.Ticket
	EventID       uuid.UUID `db:"event_id"`
	EventStart    time.Time `db:"start_date"`
	BookingStatus string    `db:"status"`
}

// FindForVerification resolves a ticket of the given event by id or number.
// Tickets of other events are reported as not found.
func (r *TicketsRepo) FindForVerification(
	ctx context.Context,
	identifier entities.TicketIdentifier,
	eventID uuid.UUID,
) (entities.TicketAdmission, error) {
	query := `
		SELECT t.id, t.booking_id, t.ticket_type_id, t.number, t.used_at, t.created_at,
			b.event_id, b.status, e.start_date
		FROM tickets t
		JOIN bookings b ON b.id = t.booking_id
		JOIN events e ON e.id = b.event_id
		WHERE b.event_id = $1 AND `

	var arg any
	switch identifier.Kind {
	case entities.TicketByID:
		query += `t.id = $2`
		arg = identifier.ID
	case entities.TicketByNumber:
		query += `t.number = $2`
		arg = identifier.Number
	default:
		return entities.TicketAdmission{}, entities.NewInvalidInput("identifier", "ticket id or number is required")
	}

	var row ticketAdmission
	err := sqlx.GetContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &row, query, eventID, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.TicketAdmission{}, entities.NewNotFound("ticket", identifier.String())
	}
	if err != nil {
		return entities.TicketAdmission{}, fmt.Errorf("failed to find ticket: %w", err)
	}

	return entities.TicketAdmission{
		Ticket:        row.Ticket,
		EventID:       row.EventID,
		EventStart:    row.EventStart,
		BookingStatus: entities.BookingStatus(row.BookingStatus),
	}, nil
}

// MarkUsed sets used_at only if it is still empty and the booking is still
// CONFIRMED. The booking row is share locked by the same statement, so a
// cancellation either commits first or waits for this transaction.
func (r *TicketsRepo) MarkUsed(ctx context.Context, ticketID uuid.UUID, at time.Time) (entities.TicketUsage, error) {
	tr := r.getter.DefaultTrOrDB(ctx, r.db)

	var usedAt time.Time
	err := tr.QueryRowxContext(ctx, `
		WITH booking AS (
			SELECT b.id, b.status
			FROM bookings b
			WHERE b.id = (SELECT booking_id FROM tickets WHERE id = $1)
			FOR SHARE
		)
		UPDATE tickets t
		SET used_at = $2
		FROM booking
		WHERE t.id = $1
			AND t.booking_id = booking.id
			AND booking.status = 'CONFIRMED'
			AND t.used_at IS NULL
		RETURNING t.used_at`,
		ticketID, at,
	).Scan(&usedAt)
	if err == nil {
		return entities.TicketUsage{
			Admitted:      true,
			UsedAt:        &usedAt,
			BookingStatus: entities.BookingStatusConfirmed,
		}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return entities.TicketUsage{}, fmt.Errorf("failed to mark ticket used: %w", err)
	}

	var (
		prior  sql.NullTime
		status string
	)
	err = tr.QueryRowxContext(ctx, `
		SELECT t.used_at, b.status
		FROM tickets t
		JOIN bookings b ON b.id = t.booking_id
		WHERE t.id = $1`,
		ticketID,
	).Scan(&prior, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.TicketUsage{}, entities.NewNotFound("ticket", ticketID.String())
	}
	if err != nil {
		return entities.TicketUsage{}, fmt.Errorf("failed to read ticket: %w", err)
	}

	usage := entities.TicketUsage{BookingStatus: entities.BookingStatus(status)}
	if prior.Valid {
		usage.UsedAt = &prior.Time
	}
	return usage, nil
}
