package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"ticketing/internal/application/usecases/events"
	"ticketing/internal/entities"
)

type CreateEventRequest struct {
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsPublished bool      `json:"is_published"`
}

type CreateTicketTypeRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type AdjustTotalRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) CreateEventHandler(c echo.Context) error {
	actorID, ok := requireActor(c)
	if !ok {
		return unauthenticated(c)
	}

	var request CreateEventRequest
	if err := c.Bind(&request); err != nil {
		return badRequest(c, "body", "malformed request body")
	}

	event, err := s.eventsService.CreateEvent(c.Request().Context(), actorID, events.NewEventRequest{
		Title:       request.Title,
		Location:    request.Location,
		StartDate:   request.StartDate,
		EndDate:     request.EndDate,
		IsPublished: request.IsPublished,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, event)
}

func (s *Server) GetEventHandler(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		return badRequest(c, "event_id", "event_id is not a valid UUID")
	}

	details, err := s.eventsService.GetEvent(c.Request().Context(), actorFrom(c), eventID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, details)
}

func (s *Server) UpdateEventHandler(c echo.Context) error {
	actorID, ok := requireActor(c)
	if !ok {
		return unauthenticated(c)
	}

	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		return badRequest(c, "event_id", "event_id is not a valid UUID")
	}

	var patch entities.EventPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "body", "malformed request body")
	}

	event, err := s.eventsService.UpdateEvent(c.Request().Context(), actorID, eventID, patch)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, event)
}

func (s *Server) DeleteEventHandler(c echo.Context) error {
	actorID, ok := requireActor(c)
	if !ok {
		return unauthenticated(c)
	}

	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		return badRequest(c, "event_id", "event_id is not a valid UUID")
	}

	if err := s.eventsService.DeleteEvent(c.Request().Context(), actorID, eventID); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) CreateTicketTypeHandler(c echo.Context) error {
	actorID, ok := requireActor(c)
	if !ok {
		return unauthenticated(c)
	}

	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		return badRequest(c, "event_id", "event_id is not a valid UUID")
	}

	var request CreateTicketTypeRequest
	if err := c.Bind(&request); err != nil {
		return badRequest(c, "body", "malformed request body")
	}

	tt, err := s.eventsService.CreateTicketType(c.Request().Context(), actorID, eventID, events.NewTicketTypeRequest{
		Name:     request.Name,
		Price:    request.Price,
		Quantity: request.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, tt)
}

func (s *Server) AdjustTotalHandler(c echo.Context) error {
	actorID, ok := requireActor(c)
	if !ok {
		return unauthenticated(c)
	}

	ticketTypeID, err := uuid.Parse(c.Param("ticket_type_id"))
	if err != nil {
		return badRequest(c, "ticket_type_id", "ticket_type_id is not a valid UUID")
	}

	var request AdjustTotalRequest
	if err := c.Bind(&request); err != nil {
		return badRequest(c, "body", "malformed request body")
	}

	tt, err := s.eventsService.AdjustTotal(c.Request().Context(), actorID, ticketTypeID, request.Quantity)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, tt)
}

func (s *Server) DeleteTicketTypeHandler(c echo.Context) error {
	actorID, ok := requireActor(c)
	if !ok {
		return unauthenticated(c)
	}

	ticketTypeID, err := uuid.Parse(c.Param("ticket_type_id"))
	if err != nil {
		return badRequest(c, "ticket_type_id", "ticket_type_id is not a valid UUID")
	}

	if err := s.eventsService.DeleteTicketType(c.Request().Context(), actorID, ticketTypeID); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
