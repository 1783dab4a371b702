package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []struct {
	name  string
	query string
}{
	{"events", `
CREATE TABLE IF NOT EXISTS events (
	id UUID PRIMARY KEY,
	creator_id UUID NOT NULL,
	title VARCHAR(255) NOT NULL,
	location VARCHAR(255) NOT NULL DEFAULT '',
	start_date TIMESTAMP WITH TIME ZONE NOT NULL,
	end_date TIMESTAMP WITH TIME ZONE NOT NULL,
	is_published BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	CHECK (end_date >= start_date)
);`},
	{"ticket_types", `
CREATE TABLE IF NOT EXISTS ticket_types (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL REFERENCES events (id) ON DELETE RESTRICT,
	name VARCHAR(255) NOT NULL,
	price NUMERIC(10, 2) NOT NULL,
	quantity INTEGER NOT NULL,
	remaining INTEGER NOT NULL,
	CHECK (remaining >= 0 AND remaining <= quantity)
);`},
	{"bookings", `
CREATE TABLE IF NOT EXISTS bookings (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL REFERENCES events (id) ON DELETE RESTRICT,
	user_id UUID NOT NULL,
	attendee_name VARCHAR(255) NOT NULL,
	attendee_email VARCHAR(255) NOT NULL,
	attendee_phone VARCHAR(64) NOT NULL,
	status VARCHAR(16) NOT NULL,
	total_amount NUMERIC(12, 2) NOT NULL,
	payment_ref VARCHAR(64) NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);`},
	{"tickets", `
CREATE TABLE IF NOT EXISTS tickets (
	id UUID PRIMARY KEY,
	booking_id UUID NOT NULL REFERENCES bookings (id) ON DELETE RESTRICT,
	ticket_type_id UUID NOT NULL REFERENCES ticket_types (id) ON DELETE RESTRICT,
	number VARCHAR(32) NOT NULL UNIQUE,
	used_at TIMESTAMP WITH TIME ZONE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);`},
	{"user_capabilities", `
CREATE TABLE IF NOT EXISTS user_capabilities (
	user_id UUID NOT NULL,
	capability VARCHAR(64) NOT NULL,
	PRIMARY KEY (user_id, capability)
);`},
	{"datalake events", `
CREATE TABLE IF NOT EXISTS datalake_events (
	event_id UUID PRIMARY KEY,
	published_at TIMESTAMP WITH TIME ZONE NOT NULL,
	event_name VARCHAR(255) NOT NULL,
	event_payload JSONB NOT NULL
);`},
	{"attendance read model", `
CREATE TABLE IF NOT EXISTS read_model_attendance (
	event_id UUID PRIMARY KEY,
	payload JSONB NOT NULL
);`},
}

func InitializeDBSchema(db *sqlx.DB) error {
	for _, table := range schema {
		_, err := db.ExecContext(context.Background(), table.query)
		if err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	return nil
}
