package http

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"ticketing/internal/entities"
)

type VerifyTicketRequest struct {
	TicketID     string `json:"ticket_id"`
	TicketNumber string `json:"ticket_number"`
	DryRun       bool   `json:"dry_run"`
}

func (r VerifyTicketRequest) identifier() (entities.TicketIdentifier, error) {
	if r.TicketID != "" {
		id, err := uuid.Parse(r.TicketID)
		if err != nil {
			return entities.TicketIdentifier{}, entities.NewInvalidInput("ticket_id", "ticket_id is not a valid UUID")
		}
		return entities.TicketIDIdentifier(id), nil
	}

	identifier := entities.TicketNumberIdentifier(r.TicketNumber)
	if !identifier.Valid() {
		return entities.TicketIdentifier{}, entities.NewInvalidInput("ticket", "ticket_id or ticket_number is required")
	}
	return identifier, nil
}

// VerifyTicketHandler answers 200 for every decided scan, admitted or not.
func (s *Server) VerifyTicketHandler(c echo.Context) error {
	actorID, ok := requireActor(c)
	if !ok {
		return unauthenticated(c)
	}

	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		return badRequest(c, "event_id", "event_id is not a valid UUID")
	}

	var request VerifyTicketRequest
	if err := c.Bind(&request); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	if q := c.QueryParam("dry_run"); q != "" {
		request.DryRun, err = strconv.ParseBool(q)
		if err != nil {
			return badRequest(c, "dry_run", "dry_run must be a boolean")
		}
	}

	identifier, err := request.identifier()
	if err != nil {
		return writeError(c, err)
	}

	ctx := c.Request().Context()
	if err := s.verificationService.AuthorizeScanner(ctx, actorID, eventID); err != nil {
		return writeError(c, err)
	}

	mode := entities.VerifyCommit
	if request.DryRun {
		mode = entities.VerifyDryRun
	}

	result, err := s.verificationService.Verify(ctx, entities.VerifyRequest{
		Identifier: identifier,
		EventID:    eventID,
		Mode:       mode,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}
