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
	"github.com/shopspring/decimal"

	"ticketing/internal/entities"
)

type booking struct {
	ID            uuid.UUID       `db:"id"`
	EventID       uuid.UUID       `db:"event_id"`
	UserID        uuid.UUID       `db:"user_id"`
	AttendeeName  string          `db:"attendee_name"`
	AttendeeEmail string          `db:"attendee_email"`
	AttendeePhone string          `db:"attendee_phone"`
	Status        string          `db:"status"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	PaymentRef    string          `db:"payment_ref"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (b booking) toEntity() entities.Booking {
	return entities.Booking{
		ID:      b.ID,
		EventID: b.EventID,
		UserID:  b.UserID,
		Attendee: entities.Attendee{
			Name:  b.AttendeeName,
			Email: b.AttendeeEmail,
			Phone: b.AttendeePhone,
		},
		Status:      entities.BookingStatus(b.Status),
		TotalAmount: b.TotalAmount,
		PaymentRef:  b.PaymentRef,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

const bookingColumns = `id, event_id, user_id, attendee_name, attendee_email, attendee_phone,
	status, total_amount, payment_ref, created_at, updated_at`

type BookingsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewBookingsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *BookingsRepo {
	return &BookingsRepo{db: db, getter: getter}
}

func (r *BookingsRepo) CreateBooking(ctx context.Context, b entities.Booking) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID,
		b.EventID,
		b.UserID,
		b.Attendee.Name,
		b.Attendee.Email,
		b.Attendee.Phone,
		string(b.Status),
		b.TotalAmount,
		b.PaymentRef,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

func (r *BookingsRepo) GetBooking(ctx context.Context, id uuid.UUID) (entities.Booking, error) {
	return r.getBooking(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

// GetBookingForUpdate locks the booking row so concurrent cancellations of
// the same booking are serialised.
func (r *BookingsRepo) GetBookingForUpdate(ctx context.Context, id uuid.UUID) (entities.Booking, error) {
	return r.getBooking(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

func (r *BookingsRepo) getBooking(ctx context.Context, query string, id uuid.UUID) (entities.Booking, error) {
	var row booking
	err := sqlx.GetContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Booking{}, entities.NewNotFound("booking", id.String())
	}
	if err != nil {
		return entities.Booking{}, fmt.Errorf("failed to get booking: %w", err)
	}

	return row.toEntity(), nil
}

// UpdateStatus moves a booking from one status to another. The booking is
// left untouched if it is no longer in the expected status.
func (r *BookingsRepo) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	from entities.BookingStatus,
	to entities.BookingStatus,
) error {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE bookings
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		id, string(from), string(to),
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if rowsAffected, _ := res.RowsAffected(); rowsAffected == 0 {
		current, err := r.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		return entities.NewWrongBookingStatus(id, current.Status)
	}

	return nil
}
