package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/settings"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"ticketing/internal/entities"
)

const (
	defaultRetryAttempts = 3
	defaultNotifyTimeout = 10 * time.Second

	paymentRefPrefix = "PAY-"
)

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoWithSettings(ctx context.Context, s trm.Settings, fn func(ctx context.Context) error) error
}

type EventsRepo interface {
	// GetEventForShare keeps the event from changing until the transaction
	// in ctx ends.
	GetEventForShare(ctx context.Context, id uuid.UUID) (entities.Event, error)
}

type Ledger interface {
	GetTicketType(ctx context.Context, id uuid.UUID) (entities.TicketType, error)
	Reserve(ctx context.Context, id uuid.UUID, quantity int) error
	ReleaseMany(ctx context.Context, units map[uuid.UUID]int) error
}

type BookingsRepo interface {
	CreateBooking(ctx context.Context, b entities.Booking) error
	GetBooking(ctx context.Context, id uuid.UUID) (entities.Booking, error)
	GetBookingForUpdate(ctx context.Context, id uuid.UUID) (entities.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entities.BookingStatus) error
}

type TicketsRepo interface {
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]entities.Ticket, error)
}

type TicketIssuer interface {
	Mint(ctx context.Context, bookingID, ticketTypeID uuid.UUID) (entities.Ticket, error)
}

type CapabilityChecker interface {
	HasCapability(ctx context.Context, actorID uuid.UUID, capability entities.Capability) (bool, error)
}

// EventPublisher appends domain events to the outbox of the transaction in ctx.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

type Notifier interface {
	Send(ctx context.Context, recipient string, template entities.TemplateKind, data map[string]string) error
}

type Passes interface {
	Sign(pass entities.BookingPass) (string, error)
	Parse(token string) (entities.BookingPass, error)
}

type IDGenerator interface {
	NewID() string
}

var (
	bookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_total",
		Help: "Total number of booking attempts by outcome",
	}, []string{"result"})
	ticketsIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tickets_issued_total",
		Help: "Total number of tickets minted by confirmed bookings",
	})
	bookingsCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_cancelled_total",
		Help: "Total number of cancelled bookings",
	})
)

type BookTicketsUsecase struct {
	trManager    TxManager
	eventsRepo   EventsRepo
	ledger       Ledger
	bookingsRepo BookingsRepo
	ticketsRepo  TicketsRepo
	issuer       TicketIssuer
	capabilities CapabilityChecker
	publisher    EventPublisher
	notifier     Notifier
	passes       Passes
	ids          IDGenerator

	retryAttempts int
	notifyTimeout time.Duration
	now           func() time.Time
}

type Option func(*BookTicketsUsecase)

func WithNotifyTimeout(d time.Duration) Option {
	return func(u *BookTicketsUsecase) {
		if d > 0 {
			u.notifyTimeout = d
		}
	}
}

func WithRetryAttempts(n int) Option {
	return func(u *BookTicketsUsecase) {
		if n > 0 {
			u.retryAttempts = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(u *BookTicketsUsecase) {
		u.now = now
	}
}

func NewBookTicketsUsecase(
	trManager TxManager,
	eventsRepo EventsRepo,
	ledger Ledger,
	bookingsRepo BookingsRepo,
	ticketsRepo TicketsRepo,
	issuer TicketIssuer,
	capabilities CapabilityChecker,
	publisher EventPublisher,
	notifier Notifier,
	passes Passes,
	ids IDGenerator,
	opts ...Option,
) *BookTicketsUsecase {
	u := &BookTicketsUsecase{
		trManager:     trManager,
		eventsRepo:    eventsRepo,
		ledger:        ledger,
		bookingsRepo:  bookingsRepo,
		ticketsRepo:   ticketsRepo,
		issuer:        issuer,
		capabilities:  capabilities,
		publisher:     publisher,
		notifier:      notifier,
		passes:        passes,
		ids:           ids,
		retryAttempts: defaultRetryAttempts,
		notifyTimeout: defaultNotifyTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func txSettings() trm.Settings {
	return trmsql.MustSettings(
		settings.Must(settings.WithCancelable(true)),
		trmsql.WithTxOptions(&sql.TxOptions{Isolation: sql.LevelReadCommitted}),
	)
}

// CreateBooking reserves every requested unit, mints the tickets and confirms
// the booking in one transaction. Either all of it happens or none of it.
func (u *BookTicketsUsecase) CreateBooking(ctx context.Context, req entities.CreateBookingRequest) (entities.Booking, error) {
	booking, err := u.createBooking(ctx, req)
	if err != nil {
		bookingsTotal.WithLabelValues(string(entities.KindOf(err))).Inc()
		log.FromContext(ctx).
			WithError(err).
			WithField("event_id", req.EventID).
			Info("Booking rejected")
		return entities.Booking{}, entities.AsDomainError(err)
	}

	bookingsTotal.WithLabelValues(string(entities.BookingStatusConfirmed)).Inc()
	ticketsIssuedTotal.Add(float64(len(booking.Tickets)))

	log.FromContext(ctx).
		WithField("booking_id", booking.ID).
		WithField("tickets", len(booking.Tickets)).
		Info("Booking confirmed")

	u.notifyConfirmed(ctx, booking)

	return booking, nil
}

func (u *BookTicketsUsecase) createBooking(ctx context.Context, req entities.CreateBookingRequest) (entities.Booking, error) {
	req, err := req.Normalized()
	if err != nil {
		return entities.Booking{}, err
	}

	var booking entities.Booking
	err = WithRetry(u.retryAttempts, func(ctx context.Context) error {
		return u.trManager.DoWithSettings(ctx, txSettings(), func(ctx context.Context) error {
			var err error
			booking, err = u.book(ctx, req)
			return err
		})
	})(ctx)

	return booking, err
}

func (u *BookTicketsUsecase) book(ctx context.Context, req entities.CreateBookingRequest) (entities.Booking, error) {
	// unpublishing waits for this transaction, and this one for a pending unpublish
	event, err := u.eventsRepo.GetEventForShare(ctx, req.EventID)
	if err != nil {
		return entities.Booking{}, err
	}
	if !event.IsPublished {
		return entities.Booking{}, entities.NewNotPublished(event.ID)
	}

	now := u.now().UTC()
	booking := entities.Booking{
		ID:          uuid.New(),
		EventID:     event.ID,
		UserID:      req.UserID,
		Attendee:    req.Attendee,
		Status:      entities.BookingStatusPending,
		TotalAmount: decimal.Zero,
		PaymentRef:  paymentRefPrefix + u.ids.NewID(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// items are sorted by ticket type id, so concurrent bookings lock rows in
	// the same order
	for _, item := range req.Items {
		tt, err := u.ledger.GetTicketType(ctx, item.TicketTypeID)
		if err != nil {
			return entities.Booking{}, err
		}
		if tt.EventID != event.ID {
			return entities.Booking{}, entities.NewNotFound("ticket type", tt.ID.String()).
				WithDetail("event_id", event.ID.String())
		}

		if err := u.ledger.Reserve(ctx, tt.ID, item.Quantity); err != nil {
			return entities.Booking{}, err
		}

		booking.TotalAmount = booking.TotalAmount.Add(tt.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if err := u.bookingsRepo.CreateBooking(ctx, booking); err != nil {
		return entities.Booking{}, fmt.Errorf("failed to create booking: %w", err)
	}

	for _, item := range req.Items {
		for i := 0; i < item.Quantity; i++ {
			ticket, err := u.issuer.Mint(ctx, booking.ID, item.TicketTypeID)
			if err != nil {
				return entities.Booking{}, err
			}
			booking.Tickets = append(booking.Tickets, ticket)
		}
	}

	err = u.bookingsRepo.UpdateStatus(ctx, booking.ID, entities.BookingStatusPending, entities.BookingStatusConfirmed)
	if err != nil {
		return entities.Booking{}, fmt.Errorf("failed to confirm booking: %w", err)
	}
	booking.Status = entities.BookingStatusConfirmed

	refs := make([]entities.TicketRef, 0, len(booking.Tickets))
	for _, t := range booking.Tickets {
		refs = append(refs, entities.TicketRef{
			TicketID:     t.ID,
			TicketTypeID: t.TicketTypeID,
			Number:       t.Number,
		})
	}

	err = u.publisher.Publish(ctx, &entities.BookingConfirmed_v1{
		Header:        entities.NewEventHeaderWithIdempotencyKey("booking-confirmed-" + booking.ID.String()),
		BookingID:     booking.ID,
		EventID:       booking.EventID,
		UserID:        booking.UserID,
		CustomerEmail: booking.Attendee.Email,
		TotalAmount:   booking.TotalAmount.StringFixed(2),
		PaymentRef:    booking.PaymentRef,
		Tickets:       refs,
		ConfirmedAt:   now,
	})
	if err != nil {
		return entities.Booking{}, fmt.Errorf("failed to publish booking confirmed event: %w", err)
	}

	return booking, nil
}

// CancelBooking is allowed to the booking owner and to admins. Units of every
// ticket of the booking go back to inventory in one batch. A booking with an
// admitted ticket can no longer be cancelled.
func (u *BookTicketsUsecase) CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID) (entities.Booking, error) {
	var booking entities.Booking

	err := WithRetry(u.retryAttempts, func(ctx context.Context) error {
		return u.trManager.DoWithSettings(ctx, txSettings(), func(ctx context.Context) error {
			var err error
			booking, err = u.cancel(ctx, bookingID, actorID)
			return err
		})
	})(ctx)
	if err != nil {
		log.FromContext(ctx).
			WithError(err).
			WithField("booking_id", bookingID).
			Info("Booking cancellation rejected")
		return entities.Booking{}, entities.AsDomainError(err)
	}

	bookingsCancelledTotal.Inc()
	log.FromContext(ctx).WithField("booking_id", booking.ID).Info("Booking cancelled")

	u.notify(ctx, booking.Attendee.Email, entities.TemplateBookingCancelled, map[string]string{
		"booking_id":    booking.ID.String(),
		"event_id":      booking.EventID.String(),
		"attendee_name": booking.Attendee.Name,
	})

	return booking, nil
}

func (u *BookTicketsUsecase) cancel(ctx context.Context, bookingID, actorID uuid.UUID) (entities.Booking, error) {
	// verification takes a shared lock on the booking row before admitting,
	// so the tickets listed below cannot be admitted until this commits
	b, err := u.bookingsRepo.GetBookingForUpdate(ctx, bookingID)
	if err != nil {
		return entities.Booking{}, err
	}
	if err := u.authorizeOwner(ctx, b, actorID); err != nil {
		return entities.Booking{}, err
	}
	if b.Status != entities.BookingStatusConfirmed {
		return entities.Booking{}, entities.NewWrongBookingStatus(b.ID, b.Status)
	}

	tickets, err := u.ticketsRepo.ListByBooking(ctx, b.ID)
	if err != nil {
		return entities.Booking{}, fmt.Errorf("failed to list tickets of booking: %w", err)
	}
	for _, t := range tickets {
		if t.UsedAt != nil {
			return entities.Booking{}, entities.NewConflict(fmt.Sprintf("booking %s has admitted tickets", b.ID)).
				WithDetail("booking_id", b.ID.String()).
				WithDetail("ticket_id", t.ID.String())
		}
	}

	if err := u.bookingsRepo.UpdateStatus(ctx, b.ID, b.Status, entities.BookingStatusCancelled); err != nil {
		return entities.Booking{}, err
	}

	units := entities.TicketUnitsByType(tickets)
	if err := u.ledger.ReleaseMany(ctx, units); err != nil {
		return entities.Booking{}, fmt.Errorf("failed to release inventory: %w", err)
	}

	now := u.now().UTC()
	released := make([]entities.ReleasedUnits, 0, len(units))
	for ticketTypeID, quantity := range units {
		released = append(released, entities.ReleasedUnits{TicketTypeID: ticketTypeID, Quantity: quantity})
	}
	sort.Slice(released, func(i, j int) bool {
		return released[i].TicketTypeID.String() < released[j].TicketTypeID.String()
	})

	err = u.publisher.Publish(ctx, &entities.BookingCancelled_v1{
		Header:      entities.NewEventHeaderWithIdempotencyKey("booking-cancelled-" + b.ID.String()),
		BookingID:   b.ID,
		EventID:     b.EventID,
		CancelledBy: actorID,
		Released:    released,
		CancelledAt: now,
	})
	if err != nil {
		return entities.Booking{}, fmt.Errorf("failed to publish booking cancelled event: %w", err)
	}

	b.Status = entities.BookingStatusCancelled
	b.UpdatedAt = now
	b.Tickets = tickets
	return b, nil
}

// GetBooking returns the booking with its tickets to its owner or an admin.
func (u *BookTicketsUsecase) GetBooking(ctx context.Context, bookingID, actorID uuid.UUID) (entities.Booking, error) {
	b, err := u.bookingsRepo.GetBooking(ctx, bookingID)
	if err != nil {
		return entities.Booking{}, entities.AsDomainError(err)
	}
	if err := u.authorizeOwner(ctx, b, actorID); err != nil {
		return entities.Booking{}, entities.AsDomainError(err)
	}

	b.Tickets, err = u.ticketsRepo.ListByBooking(ctx, b.ID)
	if err != nil {
		return entities.Booking{}, entities.AsDomainError(err)
	}
	return b, nil
}

// GetBookingByPass resolves a signed booking pass. A pass that does not
// match the stored booking is reported as not found.
func (u *BookTicketsUsecase) GetBookingByPass(ctx context.Context, token string) (entities.Booking, error) {
	pass, err := u.passes.Parse(token)
	if err != nil {
		return entities.Booking{}, entities.NewInvalidInput("token", err.Error())
	}

	b, err := u.bookingsRepo.GetBooking(ctx, pass.BookingID)
	if err != nil {
		return entities.Booking{}, entities.AsDomainError(err)
	}
	if b.EventID != pass.EventID || b.UserID != pass.UserID {
		return entities.Booking{}, entities.NewNotFound("booking", pass.BookingID.String())
	}

	b.Tickets, err = u.ticketsRepo.ListByBooking(ctx, b.ID)
	if err != nil {
		return entities.Booking{}, entities.AsDomainError(err)
	}
	return b, nil
}

func (u *BookTicketsUsecase) authorizeOwner(ctx context.Context, b entities.Booking, actorID uuid.UUID) error {
	if actorID != uuid.Nil && b.UserID == actorID {
		return nil
	}

	ok, err := u.capabilities.HasCapability(ctx, actorID, entities.CapabilityAdmin)
	if err != nil {
		return fmt.Errorf("failed to check capability: %w", err)
	}
	if !ok {
		return entities.NewForbidden(actorID, entities.CapabilityAdmin).
			WithDetail("booking_id", b.ID.String())
	}
	return nil
}

var errNoRecipient = errors.New("booking has no attendee email")
