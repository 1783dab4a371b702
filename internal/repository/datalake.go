package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"ticketing/internal/entities"
)

// DatalakeRepo keeps every published domain event for replays and audits.
type DatalakeRepo struct {
	db *sqlx.DB
}

func NewDatalakeRepo(db *sqlx.DB) *DatalakeRepo {
	return &DatalakeRepo{db: db}
}

func (r *DatalakeRepo) SaveEvent(ctx context.Context, event entities.DatalakeEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO datalake_events (event_id, published_at, event_name, event_payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`, event.ID, event.PublishedAt, event.EventName, event.Payload)
	if err != nil {
		return err
	}

	return nil
}

func (r *DatalakeRepo) GetEvents(ctx context.Context, eventName string) ([]entities.DatalakeEvent, error) {
	var events []entities.DatalakeEvent
	err := r.db.SelectContext(ctx, &events, `
		SELECT event_id, published_at, event_name, event_payload
		FROM datalake_events
		WHERE event_name = $1
		ORDER BY published_at
	`, eventName)
	if err != nil {
		return nil, err
	}

	return events, nil
}
