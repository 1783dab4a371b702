package http

import (
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"

	"ticketing/internal/entities"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func statusFor(kind entities.ErrorKind) int {
	switch kind {
	case entities.ErrKindNotFound:
		return http.StatusNotFound
	case entities.ErrKindInvalidInput:
		return http.StatusBadRequest
	case entities.ErrKindForbidden:
		return http.StatusForbidden
	case entities.ErrKindNotPublished,
		entities.ErrKindInsufficientInventory,
		entities.ErrKindWrongBookingStatus,
		entities.ErrKindAlreadyUsed,
		entities.ErrKindConflict:
		return http.StatusConflict
	case entities.ErrKindEventPassed:
		return http.StatusGone
	default:
		return http.StatusServiceUnavailable
	}
}

// writeError renders a domain error. Anything else is reported as
// unavailable without leaking its message.
func writeError(c echo.Context, err error) error {
	domainErr, _ := entities.AsDomainError(err).(*entities.Error)

	if domainErr.Kind == entities.ErrKindUnavailable {
		log.FromContext(c.Request().Context()).WithError(err).Error("Request failed")
	}

	return c.JSON(statusFor(domainErr.Kind), ErrorResponse{
		Error:   string(domainErr.Kind),
		Message: domainErr.Message,
		Details: domainErr.Details,
	})
}

func badRequest(c echo.Context, field, message string) error {
	return writeError(c, entities.NewInvalidInput(field, message))
}
