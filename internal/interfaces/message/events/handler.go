package events

import (
	"context"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"ticketing/internal/entities"
)

//go:generate mockgen -destination=mocks/attendance_read_model_mock.go -package=mocks . AttendanceReadModel
type AttendanceReadModel interface {
	OnBookingConfirmedEvent(ctx context.Context, event *entities.BookingConfirmed_v1) error
	OnBookingCancelledEvent(ctx context.Context, event *entities.BookingCancelled_v1) error
	OnTicketAdmittedEvent(ctx context.Context, event *entities.TicketAdmitted_v1) error
}

type DatalakeRepository interface {
	SaveEvent(ctx context.Context, event entities.DatalakeEvent) error
}

type Handler struct {
	attendance AttendanceReadModel
}

func NewHandler(attendance AttendanceReadModel) *Handler {
	return &Handler{attendance: attendance}
}

func (h *Handler) EventHandlers() []cqrs.EventHandler {
	return []cqrs.EventHandler{
		cqrs.NewEventHandler(
			"attendance_read_model.on_booking_confirmed",
			h.attendance.OnBookingConfirmedEvent,
		),
		cqrs.NewEventHandler(
			"attendance_read_model.on_booking_cancelled",
			h.attendance.OnBookingCancelledEvent,
		),
		cqrs.NewEventHandler(
			"attendance_read_model.on_ticket_admitted",
			h.attendance.OnTicketAdmittedEvent,
		),
		cqrs.NewEventHandler(
			"attendance_read_model.log_updates",
			func(ctx context.Context, event *entities.AttendanceReadModelUpdated_v1) error {
				log.FromContext(ctx).
					WithField("event_id", event.EventID).
					Debug("Attendance read model updated")
				return nil
			},
		),
	}
}
