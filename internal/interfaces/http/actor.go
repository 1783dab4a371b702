package http

import (
	"net/http"
	"strings"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ActorHeader carries the id of the authenticated user. Authentication
// happens in front of this service.
const ActorHeader = "X-User-ID"

const actorContextKey = "actor_id"

// ActorMiddleware resolves the acting user. Requests without the header are
// anonymous; a malformed header is rejected.
func ActorMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := strings.TrimSpace(c.Request().Header.Get(ActorHeader))
		if raw == "" {
			c.Set(actorContextKey, uuid.Nil)
			return next(c)
		}

		actorID, err := uuid.Parse(raw)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "Unauthenticated",
				Message: ActorHeader + " is not a valid user id",
			})
		}

		c.Set(actorContextKey, actorID)
		ctx := log.ToContext(c.Request().Context(), log.FromContext(c.Request().Context()).WithField("actor_id", actorID))
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

func actorFrom(c echo.Context) uuid.UUID {
	actorID, _ := c.Get(actorContextKey).(uuid.UUID)
	return actorID
}

// requireActor rejects anonymous requests.
func requireActor(c echo.Context) (uuid.UUID, bool) {
	actorID := actorFrom(c)
	return actorID, actorID != uuid.Nil
}

func unauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   "Unauthenticated",
		Message: ActorHeader + " header is required",
	})
}
