package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ticketing/internal/entities"
)

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type TicketsRepo interface {
	FindForVerification(ctx context.Context, identifier entities.TicketIdentifier, eventID uuid.UUID) (entities.TicketAdmission, error)
	// MarkUsed sets used_at only if it is still empty and the booking is
	// still CONFIRMED. Otherwise it reports the state that prevented it.
	MarkUsed(ctx context.Context, ticketID uuid.UUID, at time.Time) (entities.TicketUsage, error)
}

type EventsRepo interface {
	GetEvent(ctx context.Context, id uuid.UUID) (entities.Event, error)
}

type CapabilityChecker interface {
	HasCapability(ctx context.Context, actorID uuid.UUID, capability entities.Capability) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

var verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ticket_verifications_total",
	Help: "Total number of ticket verifications by mode and outcome",
}, []string{"mode", "result"})

type VerifyTicketUsecase struct {
	trManager    TxManager
	ticketsRepo  TicketsRepo
	eventsRepo   EventsRepo
	capabilities CapabilityChecker
	publisher    EventPublisher

	entryGrace time.Duration
	now        func() time.Time
}

type Option func(*VerifyTicketUsecase)

// WithEntryGrace admits tickets for that long after the event started.
func WithEntryGrace(d time.Duration) Option {
	return func(u *VerifyTicketUsecase) {
		if d > 0 {
			u.entryGrace = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(u *VerifyTicketUsecase) {
		u.now = now
	}
}

func NewVerifyTicketUsecase(
	trManager TxManager,
	ticketsRepo TicketsRepo,
	eventsRepo EventsRepo,
	capabilities CapabilityChecker,
	publisher EventPublisher,
	opts ...Option,
) *VerifyTicketUsecase {
	u := &VerifyTicketUsecase{
		trManager:    trManager,
		ticketsRepo:  ticketsRepo,
		eventsRepo:   eventsRepo,
		capabilities: capabilities,
		publisher:    publisher,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Verify decides whether a ticket admits entry to the event. Rejections are
// results, not errors; an error means the check itself could not be made.
func (u *VerifyTicketUsecase) Verify(ctx context.Context, req entities.VerifyRequest) (entities.VerificationResult, error) {
	result, err := u.verify(ctx, req)
	if err != nil {
		verificationsTotal.WithLabelValues(modeLabel(req.Mode), "error").Inc()
		return entities.VerificationResult{}, entities.AsDomainError(err)
	}

	outcome := "valid"
	if !result.Valid {
		outcome = string(result.Reason)
	}
	verificationsTotal.WithLabelValues(modeLabel(req.Mode), outcome).Inc()

	log.FromContext(ctx).
		WithField("ticket", req.Identifier.String()).
		WithField("event_id", req.EventID).
		WithField("dry_run", result.DryRun).
		WithField("result", outcome).
		Info("Ticket verified")

	return result, nil
}

func (u *VerifyTicketUsecase) verify(ctx context.Context, req entities.VerifyRequest) (entities.VerificationResult, error) {
	if !req.Identifier.Valid() {
		return entities.VerificationResult{}, entities.NewInvalidInput("ticket", "ticket id or number is required")
	}
	if req.EventID == uuid.Nil {
		return entities.VerificationResult{}, entities.NewInvalidInput("event_id", "event is required")
	}

	result := entities.VerificationResult{DryRun: req.Mode == entities.VerifyDryRun}

	admission, err := u.ticketsRepo.FindForVerification(ctx, req.Identifier, req.EventID)
	if errors.Is(err, entities.ErrNotFound) {
		return rejected(result, entities.ErrKindNotFound), nil
	}
	if err != nil {
		return entities.VerificationResult{}, fmt.Errorf("failed to find ticket: %w", err)
	}

	ticket := admission.Ticket
	eventStart := admission.EventStart
	result.TicketID = ticket.ID
	result.TicketNumber = ticket.Number
	result.TicketTypeID = ticket.TicketTypeID
	result.BookingID = ticket.BookingID
	result.BookingStatus = admission.BookingStatus
	result.EventStart = &eventStart
	result.UsedAt = ticket.UsedAt

	if admission.BookingStatus != entities.BookingStatusConfirmed {
		return rejected(result, entities.ErrKindWrongBookingStatus), nil
	}

	now := u.now().UTC()
	if eventStart.Add(u.entryGrace).Before(now) {
		return rejected(result, entities.ErrKindEventPassed), nil
	}

	if ticket.UsedAt != nil {
		return rejected(result, entities.ErrKindAlreadyUsed), nil
	}

	if req.Mode == entities.VerifyDryRun {
		result.Valid = true
		return result, nil
	}

	var usage entities.TicketUsage
	err = u.trManager.Do(ctx, func(ctx context.Context) error {
		var err error
		usage, err = u.ticketsRepo.MarkUsed(ctx, ticket.ID, now)
		if err != nil {
			return fmt.Errorf("failed to mark ticket as used: %w", err)
		}
		if !usage.Admitted {
			return nil
		}

		return u.publisher.Publish(ctx, &entities.TicketAdmitted_v1{
			Header:       entities.NewEventHeaderWithIdempotencyKey("ticket-admitted-" + ticket.ID.String()),
			TicketID:     ticket.ID,
			TicketNumber: ticket.Number,
			TicketTypeID: ticket.TicketTypeID,
			BookingID:    ticket.BookingID,
			EventID:      admission.EventID,
			UsedAt:       *usage.UsedAt,
		})
	})
	if err != nil {
		return entities.VerificationResult{}, err
	}

	// the booking may have been cancelled, or the ticket used, since the lookup
	result.UsedAt = usage.UsedAt
	result.BookingStatus = usage.BookingStatus
	if usage.BookingStatus != entities.BookingStatusConfirmed {
		return rejected(result, entities.ErrKindWrongBookingStatus), nil
	}
	if !usage.Admitted {
		return rejected(result, entities.ErrKindAlreadyUsed), nil
	}

	result.Valid = true
	return result, nil
}

// AuthorizeScanner allows the event creator, ticket checkers and admins to
// verify tickets of an event.
func (u *VerifyTicketUsecase) AuthorizeScanner(ctx context.Context, actorID, eventID uuid.UUID) error {
	event, err := u.eventsRepo.GetEvent(ctx, eventID)
	if err != nil {
		return entities.AsDomainError(err)
	}
	if actorID != uuid.Nil && event.CreatorID == actorID {
		return nil
	}

	for _, c := range []entities.Capability{entities.CapabilityVerifyTickets, entities.CapabilityAdmin} {
		ok, err := u.capabilities.HasCapability(ctx, actorID, c)
		if err != nil {
			return entities.NewUnavailable(fmt.Errorf("failed to check capability: %w", err))
		}
		if ok {
			return nil
		}
	}

	return entities.NewForbidden(actorID, entities.CapabilityVerifyTickets).
		WithDetail("event_id", eventID.String())
}

func rejected(result entities.VerificationResult, reason entities.ErrorKind) entities.VerificationResult {
	result.Valid = false
	result.Reason = reason
	return result
}

func modeLabel(mode entities.VerifyMode) string {
	if mode == entities.VerifyDryRun {
		return "dry_run"
	}
	return "commit"
}
