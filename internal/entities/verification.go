package entities

import (
	"time"

	"github.com/google/uuid"
)

type VerifyMode int

const (
	VerifyCommit VerifyMode = iota
	VerifyDryRun
)

type VerifyRequest struct {
	Identifier TicketIdentifier
	EventID    uuid.UUID
	Mode       VerifyMode
}

// VerificationResult is returned for every scan. Reason and the echoed
// fields say which check rejected the ticket.
type VerificationResult struct {
	Valid  bool      `json:"valid"`
	Reason ErrorKind `json:"reason,omitempty"`
	DryRun bool      `json:"dry_run"`

	TicketID      uuid.UUID     `json:"ticket_id,omitempty"`
	TicketNumber  string        `json:"ticket_number,omitempty"`
	TicketTypeID  uuid.UUID     `json:"ticket_type_id,omitempty"`
	BookingID     uuid.UUID     `json:"booking_id,omitempty"`
	BookingStatus BookingStatus `json:"booking_status,omitempty"`
	EventStart    *time.Time    `json:"event_start,omitempty"`
	UsedAt        *time.Time    `json:"used_at,omitempty"`
}
