package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"ticketing/internal/entities"
	"ticketing/internal/repository"
)

type createdEvent struct {
	event      entities.Event
	ticketType entities.TicketType
	organizer  uuid.UUID
}

func (s *ComponentTestSuite) createEvent(quantity int) createdEvent {
	organizer := uuid.New()
	s.grant(organizer, entities.CapabilityCreateEvents)

	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)

	var event entities.Event
	status := s.do(http.MethodPost, "/events", organizer, map[string]any{
		"title":        "Component test event",
		"location":     "Hall A",
		"start_date":   start,
		"end_date":     start.Add(4 * time.Hour),
		"is_published": true,
	}, &event)
	s.Require().Equal(http.StatusCreated, status)

	var tt entities.TicketType
	status = s.do(http.MethodPost, "/events/"+event.ID.String()+"/ticket-types", organizer, map[string]any{
		"name":     "General",
		"price":    "49.90",
		"quantity": quantity,
	}, &tt)
	s.Require().Equal(http.StatusCreated, status)
	s.Require().Equal(quantity, tt.Remaining)

	return createdEvent{event: event, ticketType: tt, organizer: organizer}
}

func (s *ComponentTestSuite) book(ce createdEvent, userID uuid.UUID, quantity int) (entities.Booking, int) {
	var booking entities.Booking
	status := s.do(http.MethodPost, "/events/"+ce.event.ID.String()+"/bookings", userID, map[string]any{
		"attendee": map[string]string{
			"name":  "Grace Hopper",
			"email": "grace@example.com",
			"phone": "+48123456789",
		},
		"items": []map[string]any{
			{"ticket_type_id": ce.ticketType.ID, "quantity": quantity},
		},
	}, &booking)
	return booking, status
}

func (s *ComponentTestSuite) remaining(ce createdEvent) int {
	var details struct {
		TicketTypes []entities.TicketType `json:"ticket_types"`
	}
	status := s.do(http.MethodGet, "/events/"+ce.event.ID.String(), ce.organizer, nil, &details)
	s.Require().Equal(http.StatusOK, status)
	s.Require().Len(details.TicketTypes, 1)
	return details.TicketTypes[0].Remaining
}

func (s *ComponentTestSuite) attendance(ce createdEvent) entities.AttendanceTicketTypeStats {
	var summary entities.AttendanceSummary
	status := s.do(http.MethodGet, "/events/"+ce.event.ID.String()+"/attendance", ce.organizer, nil, &summary)
	s.Require().Equal(http.StatusOK, status)
	return summary.TicketTypes[ce.ticketType.ID.String()]
}

// waitForNotification acks notifications until one for bookingID with the
// given template shows up.
func (s *ComponentTestSuite) waitForNotification(bookingID uuid.UUID, template entities.TemplateKind) entities.SendNotification {
	timeout := time.After(30 * time.Second)
	for {
		select {
		case msg := <-s.notifications:
			msg.Ack()

			var cmd entities.SendNotification
			if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
				continue
			}
			if cmd.Template == template && cmd.Data["booking_id"] == bookingID.String() {
				return cmd
			}
		case <-timeout:
			s.FailNow("notification not received", "booking %s, template %s", bookingID, template)
			return entities.SendNotification{}
		}
	}
}

func (s *ComponentTestSuite) TestBookVerifyAndAttend() {
	ce := s.createEvent(10)
	customer := uuid.New()

	booking, status := s.book(ce, customer, 3)
	s.Require().Equal(http.StatusCreated, status)
	s.Equal(entities.BookingStatusConfirmed, booking.Status)
	s.Equal("149.70", booking.TotalAmount.StringFixed(2))
	s.Require().Len(booking.Tickets, 3)
	s.Equal(7, s.remaining(ce))

	notification := s.waitForNotification(booking.ID, entities.TemplateBookingConfirmed)
	s.Equal("grace@example.com", notification.Recipient)
	s.NotEmpty(notification.Data["pass"])

	var fromPass entities.Booking
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/passes/"+notification.Data["pass"], uuid.Nil, nil, &fromPass))
	s.Equal(booking.ID, fromPass.ID)

	s.Require().EventuallyWithT(func(t *assert.CollectT) {
		events, err := repository.NewDatalakeRepo(s.db).GetEvents(context.Background(), "BookingConfirmed_v1")
		if !assert.NoError(t, err) {
			return
		}
		found := false
		for _, e := range events {
			var payload entities.BookingConfirmed_v1
			if json.Unmarshal(e.Payload, &payload) == nil && payload.BookingID == booking.ID {
				found = true
			}
		}
		assert.True(t, found, "booking confirmation not stored in the data lake")
	}, 30*time.Second, 200*time.Millisecond)

	s.Require().EventuallyWithT(func(t *assert.CollectT) {
		assert.Equal(t, 3, s.attendance(ce).Booked)
	}, 30*time.Second, 200*time.Millisecond)

	verifyPath := "/events/" + ce.event.ID.String() + "/verify"
	ticket := booking.Tickets[0]

	var dryRun entities.VerificationResult
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, verifyPath, ce.organizer, map[string]any{
		"ticket_number": ticket.Number,
		"dry_run":       true,
	}, &dryRun))
	s.True(dryRun.Valid)
	s.True(dryRun.DryRun)

	var admitted entities.VerificationResult
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, verifyPath, ce.organizer, map[string]any{
		"ticket_id": ticket.ID,
	}, &admitted))
	s.True(admitted.Valid)
	s.Require().NotNil(admitted.UsedAt)

	var again entities.VerificationResult
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, verifyPath, ce.organizer, map[string]any{
		"ticket_id": ticket.ID,
	}, &again))
	s.False(again.Valid)
	s.Equal(entities.ErrKindAlreadyUsed, again.Reason)

	s.Equal(http.StatusForbidden, s.do(http.MethodPost, verifyPath, customer, map[string]any{
		"ticket_id": ticket.ID,
	}, nil))

	s.Require().EventuallyWithT(func(t *assert.CollectT) {
		assert.Equal(t, 1, s.attendance(ce).Admitted)
	}, 30*time.Second, 200*time.Millisecond)
}

func (s *ComponentTestSuite) TestCancelReleasesInventory() {
	ce := s.createEvent(5)
	customer := uuid.New()

	booking, status := s.book(ce, customer, 4)
	s.Require().Equal(http.StatusCreated, status)
	s.Equal(1, s.remaining(ce))

	_, status = s.book(ce, uuid.New(), 2)
	s.Equal(http.StatusConflict, status)

	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/bookings/"+booking.ID.String()+"/cancel", uuid.New(), nil, nil))

	var cancelled entities.Booking
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/bookings/"+booking.ID.String()+"/cancel", customer, nil, &cancelled))
	s.Equal(entities.BookingStatusCancelled, cancelled.Status)
	s.Equal(5, s.remaining(ce))

	s.Equal(http.StatusConflict, s.do(http.MethodPost, "/bookings/"+booking.ID.String()+"/cancel", customer, nil, nil))

	s.waitForNotification(booking.ID, entities.TemplateBookingCancelled)

	s.Require().EventuallyWithT(func(t *assert.CollectT) {
		assert.Equal(t, 4, s.attendance(ce).Cancelled)
	}, 30*time.Second, 200*time.Millisecond)
}

func (s *ComponentTestSuite) TestConcurrentBookingsNeverOversell() {
	ce := s.createEvent(5)

	const buyers = 12

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, status := s.book(ce, uuid.New(), 1)

			mu.Lock()
			defer mu.Unlock()
			if status == http.StatusCreated {
				succeeded++
			}
		}()
	}
	wg.Wait()

	s.Equal(5, succeeded)
	s.Equal(0, s.remaining(ce))

	var tt entities.TicketType
	s.Require().Equal(http.StatusOK, s.do(
		http.MethodPut,
		"/ticket-types/"+ce.ticketType.ID.String()+"/quantity",
		ce.organizer,
		map[string]int{"quantity": 8},
		&tt,
	))
	s.Equal(3, tt.Remaining)
	s.True(tt.Price.Equal(decimal.RequireFromString("49.90")))
}
