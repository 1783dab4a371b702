package entities

import (
	"time"

	"github.com/google/uuid"
)

// Attendance is the per-event read model built from booking and admission
// events. Bookings and Admitted are keyed by id so redelivered events are
// applied once.
type Attendance struct {
	EventID uuid.UUID `json:"event_id"`

	Bookings map[string]AttendanceBooking `json:"bookings"`
	Admitted map[string]AttendanceTicket  `json:"admitted"`

	LastUpdate time.Time `json:"last_update"`
}

type AttendanceBooking struct {
	Status BookingStatus  `json:"status"`
	Units  map[string]int `json:"units"`
}

type AttendanceTicket struct {
	TicketTypeID string    `json:"ticket_type_id"`
	UsedAt       time.Time `json:"used_at"`
}

type AttendanceSummary struct {
	EventID     uuid.UUID                            `json:"event_id"`
	TicketTypes map[string]AttendanceTicketTypeStats `json:"ticket_types"`
	LastUpdate  time.Time                            `json:"last_update"`
}

type AttendanceTicketTypeStats struct {
	Booked    int `json:"booked"`
	Cancelled int `json:"cancelled"`
	Admitted  int `json:"admitted"`
}

func NewAttendance(eventID uuid.UUID) Attendance {
	return Attendance{
		EventID:  eventID,
		Bookings: map[string]AttendanceBooking{},
		Admitted: map[string]AttendanceTicket{},
	}
}

func (a Attendance) Summary() AttendanceSummary {
	summary := AttendanceSummary{
		EventID:     a.EventID,
		TicketTypes: map[string]AttendanceTicketTypeStats{},
		LastUpdate:  a.LastUpdate,
	}

	for _, b := range a.Bookings {
		for ticketTypeID, units := range b.Units {
			stats := summary.TicketTypes[ticketTypeID]
			if b.Status == BookingStatusCancelled {
				stats.Cancelled += units
			} else {
				stats.Booked += units
			}
			summary.TicketTypes[ticketTypeID] = stats
		}
	}
	for _, t := range a.Admitted {
		stats := summary.TicketTypes[t.TicketTypeID]
		stats.Admitted++
		summary.TicketTypes[t.TicketTypeID] = stats
	}

	return summary
}
