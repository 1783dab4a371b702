package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ticketing/internal/entities"
)

type EventsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewEventsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *EventsRepo {
	return &EventsRepo{db: db, getter: getter}
}

const eventColumns = `id, creator_id, title, location, start_date, end_date, is_published, created_at`

func (r *EventsRepo) CreateEvent(ctx context.Context, event entities.Event) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID,
		event.CreatorID,
		event.Title,
		event.Location,
		event.StartDate,
		event.EndDate,
		event.IsPublished,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

func (r *EventsRepo) GetEvent(ctx context.Context, id uuid.UUID) (entities.Event, error) {
	return r.getEvent(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

// GetEventForUpdate locks the event row until the surrounding transaction ends.
func (r *EventsRepo) GetEventForUpdate(ctx context.Context, id uuid.UUID) (entities.Event, error) {
	return r.getEvent(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
}

// GetEventForShare blocks updates of the event until the surrounding
// transaction ends, while letting other readers share the lock.
func (r *EventsRepo) GetEventForShare(ctx context.Context, id uuid.UUID) (entities.Event, error) {
	return r.getEvent(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR SHARE`, id)
}

func (r *EventsRepo) getEvent(ctx context.Context, query string, id uuid.UUID) (entities.Event, error) {
	var event entities.Event
	err := sqlx.GetContext(ctx, r.getter.DefaultTrOrDB(ctx, r.db), &event, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Event{}, entities.NewNotFound("event", id.String())
	}
	if err != nil {
		return entities.Event{}, fmt.Errorf("failed to get event: %w", err)
	}

	return event, nil
}

func (r *EventsRepo) UpdateEvent(ctx context.Context, event entities.Event) error {
	res, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE events
		SET title = $2, location = $3, start_date = $4, end_date = $5, is_published = $6
		WHERE id = $1`,
		event.ID,
		event.Title,
		event.Location,
		event.StartDate,
		event.EndDate,
		event.IsPublished,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if rowsAffected, _ := res.RowsAffected(); rowsAffected == 0 {
		return entities.NewNotFound("event", event.ID.String())
	}

	return nil
}

// DeleteEvent removes an event together with its ticket types. It is refused
// while any booking references the event.
func (r *EventsRepo) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	tr := r.getter.DefaultTrOrDB(ctx, r.db)

	var bookings int
	err := sqlx.GetContext(ctx, tr, &bookings, `SELECT COUNT(*) FROM bookings WHERE event_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to count bookings: %w", err)
	}
	if bookings > 0 {
		return entities.NewConflict(fmt.Sprintf("event %s has %d bookings", id, bookings)).
			WithDetail("event_id", id.String()).
			WithDetail("bookings", fmt.Sprint(bookings))
	}

	_, err = tr.ExecContext(ctx, `DELETE FROM ticket_types WHERE event_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ticket types: %w", err)
	}

	res, err := tr.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if rowsAffected, _ := res.RowsAffected(); rowsAffected == 0 {
		return entities.NewNotFound("event", id.String())
	}

	return nil
}
