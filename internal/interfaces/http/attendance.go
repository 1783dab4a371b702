package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func (s *Server) GetAttendanceHandler(c echo.Context) error {
	actorID, ok := requireActor(c)
	if !ok {
		return unauthenticated(c)
	}

	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		return badRequest(c, "event_id", "event_id is not a valid UUID")
	}

	// the same people who may scan tickets may watch the door
	ctx := c.Request().Context()
	if err := s.verificationService.AuthorizeScanner(ctx, actorID, eventID); err != nil {
		return writeError(c, err)
	}

	summary, err := s.attendance.GetByEventID(ctx, eventID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, summary)
}
