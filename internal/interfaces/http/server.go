package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ticketing/internal/application/usecases/events"
	"ticketing/internal/entities"
)

//go:generate mockgen -destination=mocks/booking_service_mock.go -package=mocks . BookingService
type BookingService interface {
	CreateBooking(ctx context.Context, req entities.CreateBookingRequest) (entities.Booking, error)
	CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID) (entities.Booking, error)
	GetBooking(ctx context.Context, bookingID, actorID uuid.UUID) (entities.Booking, error)
	GetBookingByPass(ctx context.Context, token string) (entities.Booking, error)
}

//go:generate mockgen -destination=mocks/verification_service_mock.go -package=mocks . VerificationService
type VerificationService interface {
	AuthorizeScanner(ctx context.Context, actorID, eventID uuid.UUID) error
	Verify(ctx context.Context, req entities.VerifyRequest) (entities.VerificationResult, error)
}

//go:generate mockgen -destination=mocks/events_service_mock.go -package=mocks . EventsService
type EventsService interface {
	CreateEvent(ctx context.Context, actorID uuid.UUID, req events.NewEventRequest) (entities.Event, error)
	GetEvent(ctx context.Context, actorID, eventID uuid.UUID) (events.EventDetails, error)
	UpdateEvent(ctx context.Context, actorID, eventID uuid.UUID, patch entities.EventPatch) (entities.Event, error)
	DeleteEvent(ctx context.Context, actorID, eventID uuid.UUID) error
	CreateTicketType(ctx context.Context, actorID, eventID uuid.UUID, req events.NewTicketTypeRequest) (entities.TicketType, error)
	AdjustTotal(ctx context.Context, actorID, ticketTypeID uuid.UUID, newQuantity int) (entities.TicketType, error)
	DeleteTicketType(ctx context.Context, actorID, ticketTypeID uuid.UUID) error
}

//go:generate mockgen -destination=mocks/attendance_read_model_mock.go -package=mocks . AttendanceReadModel
type AttendanceReadModel interface {
	GetByEventID(ctx context.Context, eventID uuid.UUID) (entities.AttendanceSummary, error)
}

type Server struct {
	e    *echo.Echo
	addr string

	eventsService       EventsService
	bookingService      BookingService
	verificationService VerificationService
	attendance          AttendanceReadModel
}

func NewServer(
	e *echo.Echo,
	addr string,
	eventsService EventsService,
	bookingService BookingService,
	verificationService VerificationService,
	attendance AttendanceReadModel,
	routerIsRunning func() bool,
) *Server {
	srv := &Server{
		e:                   e,
		addr:                addr,
		eventsService:       eventsService,
		bookingService:      bookingService,
		verificationService: verificationService,
		attendance:          attendance,
	}

	// logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log.FromContext(c.Request().Context()).
				WithField("path", c.Request().URL.Path).
				WithField("method", c.Request().Method).
				Info("Handling a request")

			err := next(c)

			if err != nil {
				log.FromContext(c.Request().Context()).
					WithField("error", err).
					Error("Request handling error")
			}

			return err
		}
	})
	e.Use(ActorMiddleware)

	e.POST("/events", srv.CreateEventHandler)
	e.GET("/events/:event_id", srv.GetEventHandler)
	e.PATCH("/events/:event_id", srv.UpdateEventHandler)
	e.DELETE("/events/:event_id", srv.DeleteEventHandler)

	e.POST("/events/:event_id/ticket-types", srv.CreateTicketTypeHandler)
	e.PUT("/ticket-types/:ticket_type_id/quantity", srv.AdjustTotalHandler)
	e.DELETE("/ticket-types/:ticket_type_id", srv.DeleteTicketTypeHandler)

	e.POST("/events/:event_id/bookings", srv.CreateBookingHandler)
	e.GET("/bookings/:booking_id", srv.GetBookingHandler)
	e.POST("/bookings/:booking_id/cancel", srv.CancelBookingHandler)

	e.POST("/events/:event_id/verify", srv.VerifyTicketHandler)
	e.GET("/events/:event_id/attendance", srv.GetAttendanceHandler)
	e.GET("/passes/:token", srv.GetPassHandler)

	e.GET("/health", func(c echo.Context) error {
		if !routerIsRunning() {
			return c.String(http.StatusServiceUnavailable, "router is not running")
		}
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return srv
}

func (s *Server) Start() error {
	err := s.e.Start(s.addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
