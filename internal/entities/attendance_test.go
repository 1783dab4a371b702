package entities_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"ticketing/internal/entities"
)

func TestAttendance_Summary(t *testing.T) {
	eventID := uuid.New()
	a := entities.NewAttendance(eventID)

	a.Bookings["b1"] = entities.AttendanceBooking{
		Status: entities.BookingStatusConfirmed,
		Units:  map[string]int{"vip": 2, "regular": 1},
	}
	a.Bookings["b2"] = entities.AttendanceBooking{
		Status: entities.BookingStatusCancelled,
		Units:  map[string]int{"regular": 3},
	}
	a.Admitted["t1"] = entities.AttendanceTicket{TicketTypeID: "vip"}

	summary := a.Summary()

	assert.Equal(t, eventID, summary.EventID)
	assert.Equal(t, entities.AttendanceTicketTypeStats{Booked: 2, Admitted: 1}, summary.TicketTypes["vip"])
	assert.Equal(t, entities.AttendanceTicketTypeStats{Booked: 1, Cancelled: 3}, summary.TicketTypes["regular"])
}
