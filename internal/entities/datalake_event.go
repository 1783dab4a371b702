package entities

import (
	"time"

	"github.com/google/uuid"
)

// DatalakeEvent is a raw domain event as stored for later replay.
type DatalakeEvent struct {
	ID          uuid.UUID `db:"event_id"`
	PublishedAt time.Time `db:"published_at"`
	EventName   string    `db:"event_name"`
	Payload     []byte    `db:"event_payload"`
}
