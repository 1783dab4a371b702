package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"ticketing/internal/entities"
)

type CreateBookingRequest struct {
	Attendee entities.Attendee      `json:"attendee"`
	Items    []entities.BookingItem `json:"items"`
}

func (s *Server) CreateBookingHandler(c echo.Context) error {
	actorID, ok := requireActor(c)
	if !ok {
		return unauthenticated(c)
	}

	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		return badRequest(c, "event_id", "event_id is not a valid UUID")
	}

	var request CreateBookingRequest
	if err := c.Bind(&request); err != nil {
		return badRequest(c, "body", "malformed request body")
	}

	booking, err := s.bookingService.CreateBooking(c.Request().Context(), entities.CreateBookingRequest{
		EventID:  eventID,
		UserID:   actorID,
		Attendee: request.Attendee,
		Items:    request.Items,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, booking)
}

func (s *Server) GetBookingHandler(c echo.Context) error {
	actorID, ok := requireActor(c)
	if !ok {
		return unauthenticated(c)
	}

	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		return badRequest(c, "booking_id", "booking_id is not a valid UUID")
	}

	booking, err := s.bookingService.GetBooking(c.Request().Context(), bookingID, actorID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, booking)
}

func (s *Server) CancelBookingHandler(c echo.Context) error {
	actorID, ok := requireActor(c)
	if !ok {
		return unauthenticated(c)
	}

	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		return badRequest(c, "booking_id", "booking_id is not a valid UUID")
	}

	booking, err := s.bookingService.CancelBooking(c.Request().Context(), bookingID, actorID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, booking)
}

// GetPassHandler shows what a signed booking pass stands for, e.g. for a
// scanner preview.
func (s *Server) GetPassHandler(c echo.Context) error {
	booking, err := s.bookingService.GetBookingByPass(c.Request().Context(), c.Param("token"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, booking)
}
