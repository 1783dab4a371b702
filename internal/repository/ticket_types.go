package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ticketing/internal/entities"
)

// TicketTypesRepo is the inventory ledger. Every change of remaining is a
// single conditional UPDATE, so the row lock taken by Postgres is the only
// synchronisation needed between concurrent bookings.
type TicketTypesRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewTicketTypesRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *TicketTypesRepo {
	return &TicketTypesRepo{db: db, getter: getter}
}

const ticketTypeColumns = `id, event_id, name, price, quantity, remaining`

func (r *TicketTypesRepo) CreateTicketType(ctx context.Context, tt entities.TicketType) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		INSERT INTO ticket_types (`+ticketTypeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		tt.ID,
		tt.EventID,
		tt.Name,
		tt.Price,
		tt.Quantity,
		tt.Remaining,
	)
	if err != nil {
		return fmt.Errorf("failed to create ticket type: %w", err)
	}

	return nil
}

func (r *TicketTypesRepo) GetTicketType(ctx context.Context, id uuid.UUID) (entities.TicketType, error) {
	var tt entities.TicketType
	err := sqlx.GetContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &tt,
		`SELECT `+ticketTypeColumns+` FROM ticket_types WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.TicketType{}, entities.NewNotFound("ticket type", id.String())
	}
	if err != nil {
		return entities.TicketType{}, fmt.Errorf("failed to get ticket type: %w", err)
	}

	return tt, nil
}

func (r *TicketTypesRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]entities.TicketType, error) {
	var tts []entities.TicketType
	err := sqlx.SelectContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &tts,
		`SELECT `+ticketTypeColumns+` FROM ticket_types WHERE event_id = $1 ORDER BY name`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket types: %w", err)
	}

	return tts, nil
}

// Reserve takes quantity units out of remaining, or fails with
// InsufficientInventory without changing anything.
func (r *TicketTypesRepo) Reserve(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity < 1 {
		return entities.NewInvalidInput("quantity", "quantity must be at least 1")
	}

	var remaining int
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		UPDATE ticket_types
		SET remaining = remaining - $2
		WHERE id = $1 AND remaining >= $2
		RETURNING remaining`,
		id, quantity,
	).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		tt, err := r.GetTicketType(ctx, id)
		if err != nil {
			return err
		}
		return entities.NewInsufficientInventory(id, quantity, tt.Remaining)
	}
	if err != nil {
		return fmt.Errorf("failed to reserve ticket type %s: %w", id, err)
	}

	return nil
}

func (r *TicketTypesRepo) Release(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.ReleaseMany(ctx, map[uuid.UUID]int{id: quantity})
}

// ReleaseMany returns units to several ticket types in one batch.
// remaining never goes above quantity. Rows are locked in id order first, the
// order bookings reserve in, so a cancellation and a booking sharing ticket
// types cannot deadlock each other.
func (r *TicketTypesRepo) ReleaseMany(ctx context.Context, units map[uuid.UUID]int) error {
	if len(units) == 0 {
		return nil
	}

	ticketTypeIDs := make([]uuid.UUID, 0, len(units))
	for id, quantity := range units {
		if quantity < 1 {
			return entities.NewInvalidInput("quantity", "quantity must be at least 1").
				WithDetail("ticket_type_id", id.String())
		}
		ticketTypeIDs = append(ticketTypeIDs, id)
	}
	sort.Slice(ticketTypeIDs, func(i, j int) bool {
		return ticketTypeIDs[i].String() < ticketTypeIDs[j].String()
	})

	ids := make([]string, 0, len(ticketTypeIDs))
	quantities := make([]int64, 0, len(ticketTypeIDs))
	for _, id := range ticketTypeIDs {
		ids = append(ids, id.String())
		quantities = append(quantities, int64(units[id]))
	}

	tr := r.getter.DefaultTrOrDB(ctx, r.db)

	var locked []string
	err := sqlx.SelectContext(ctx, tr, &locked, `
		SELECT id FROM ticket_types
		WHERE id = ANY($1::uuid[])
		ORDER BY id
		FOR UPDATE`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to lock ticket types: %w", err)
	}
	if len(locked) != len(ids) {
		return entities.NewNotFound("ticket type", fmt.Sprint(ids))
	}

	_, err = tr.ExecContext(ctx, `
		UPDATE ticket_types AS t
		SET remaining = LEAST(t.quantity, t.remaining + r.units)
		FROM unnest($1::uuid[], $2::int[]) AS r(id, units)
		WHERE t.id = r.id`,
		pq.Array(ids), pq.Array(quantities),
	)
	if err != nil {
		return fmt.Errorf("failed to release ticket types: %w", err)
	}

	return nil
}

// AdjustTotal changes capacity and shifts remaining by the same delta.
// Capacity below the number of sold tickets is rejected.
func (r *TicketTypesRepo) AdjustTotal(ctx context.Context, id uuid.UUID, newQuantity int) (entities.TicketType, error) {
	if newQuantity < 1 {
		return entities.TicketType{}, entities.NewInvalidInput("quantity", "quantity must be at least 1")
	}

	var tt entities.TicketType
	err := sqlx.GetContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &tt, `
		UPDATE ticket_types
		SET quantity = $2, remaining = remaining + ($2 - quantity)
		WHERE id = $1 AND remaining + ($2 - quantity) >= 0
		RETURNING `+ticketTypeColumns,
		id, newQuantity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		current, err := r.GetTicketType(ctx, id)
		if err != nil {
			return entities.TicketType{}, err
		}
		return entities.TicketType{}, entities.NewInvalidInput("quantity", "quantity is below the number of sold tickets").
			WithDetail("ticket_type_id", id.String()).
			WithDetail("sold", fmt.Sprint(current.Sold()))
	}
	if err != nil {
		return entities.TicketType{}, fmt.Errorf("failed to adjust ticket type %s: %w", id, err)
	}

	return tt, nil
}

// DeleteTicketType is refused once any ticket of the type was issued.
func (r *TicketTypesRepo) DeleteTicketType(ctx context.Context, id uuid.UUID) error {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		DELETE FROM ticket_types
		WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM tickets WHERE ticket_type_id = $1)`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete ticket type: %w", err)
	}
	if rowsAffected, _ := res.RowsAffected(); rowsAffected == 0 {
		tt, err := r.GetTicketType(ctx, id)
		if err != nil {
			return err
		}
		return entities.NewConflict(fmt.Sprintf("ticket type %s has issued tickets", id)).
			WithDetail("ticket_type_id", id.String()).
			WithDetail("sold", fmt.Sprint(tt.Sold()))
	}

	return nil
}
