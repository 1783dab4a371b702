package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ticketing/internal/entities"
)

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventsRepo interface {
	CreateEvent(ctx context.Context, event entities.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (entities.Event, error)
	GetEventForUpdate(ctx context.Context, id uuid.UUID) (entities.Event, error)
	UpdateEvent(ctx context.Context, event entities.Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

type TicketTypesRepo interface {
	CreateTicketType(ctx context.Context, tt entities.TicketType) error
	GetTicketType(ctx context.Context, id uuid.UUID) (entities.TicketType, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]entities.TicketType, error)
	AdjustTotal(ctx context.Context, id uuid.UUID, newQuantity int) (entities.TicketType, error)
	DeleteTicketType(ctx context.Context, id uuid.UUID) error
}

type CapabilityChecker interface {
	HasCapability(ctx context.Context, actorID uuid.UUID, capability entities.Capability) (bool, error)
}

type NewEventRequest struct {
	Title       string
	Location    string
	StartDate   time.Time
	EndDate     time.Time
	IsPublished bool
}

type NewTicketTypeRequest struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

type EventDetails struct {
	entities.Event
	TicketTypes []entities.TicketType `json:"ticket_types"`
}

type ManageEventsUsecase struct {
	trManager       TxManager
	eventsRepo      EventsRepo
	ticketTypesRepo TicketTypesRepo
	capabilities    CapabilityChecker
}

func NewManageEventsUsecase(
	trManager TxManager,
	eventsRepo EventsRepo,
	ticketTypesRepo TicketTypesRepo,
	capabilities CapabilityChecker,
) *ManageEventsUsecase {
	return &ManageEventsUsecase{
		trManager:       trManager,
		eventsRepo:      eventsRepo,
		ticketTypesRepo: ticketTypesRepo,
		capabilities:    capabilities,
	}
}

func (u *ManageEventsUsecase) CreateEvent(ctx context.Context, actorID uuid.UUID, req NewEventRequest) (entities.Event, error) {
	if err := u.require(ctx, actorID, entities.CapabilityCreateEvents, entities.CapabilityAdmin); err != nil {
		return entities.Event{}, err
	}

	event, err := entities.NewEvent(actorID, req.Title, req.Location, req.StartDate, req.EndDate)
	if err != nil {
		return entities.Event{}, err
	}
	event.IsPublished = req.IsPublished

	if err := u.eventsRepo.CreateEvent(ctx, event); err != nil {
		return entities.Event{}, entities.AsDomainError(err)
	}

	log.FromContext(ctx).WithField("event_id", event.ID).Info("Event created")
	return event, nil
}

// GetEvent shows published events to everyone and drafts only to those who
// may edit them.
func (u *ManageEventsUsecase) GetEvent(ctx context.Context, actorID, eventID uuid.UUID) (EventDetails, error) {
	event, err := u.eventsRepo.GetEvent(ctx, eventID)
	if err != nil {
		return EventDetails{}, entities.AsDomainError(err)
	}
	if !event.IsPublished {
		if err := u.canManage(ctx, actorID, event); err != nil {
			return EventDetails{}, entities.NewNotFound("event", eventID.String())
		}
	}

	ticketTypes, err := u.ticketTypesRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return EventDetails{}, entities.AsDomainError(err)
	}

	return EventDetails{Event: event, TicketTypes: ticketTypes}, nil
}

func (u *ManageEventsUsecase) UpdateEvent(ctx context.Context, actorID, eventID uuid.UUID, patch entities.EventPatch) (entities.Event, error) {
	var updated entities.Event
	err := u.trManager.Do(ctx, func(ctx context.Context) error {
		event, err := u.eventsRepo.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if err := u.canManage(ctx, actorID, event); err != nil {
			return err
		}

		updated, err = event.Apply(patch)
		if err != nil {
			return err
		}
		return u.eventsRepo.UpdateEvent(ctx, updated)
	})
	if err != nil {
		return entities.Event{}, entities.AsDomainError(err)
	}

	log.FromContext(ctx).
		WithField("event_id", updated.ID).
		WithField("published", updated.IsPublished).
		Info("Event updated")
	return updated, nil
}

func (u *ManageEventsUsecase) DeleteEvent(ctx context.Context, actorID, eventID uuid.UUID) error {
	err := u.trManager.Do(ctx, func(ctx context.Context) error {
		event, err := u.eventsRepo.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if err := u.canManage(ctx, actorID, event); err != nil {
			return err
		}
		return u.eventsRepo.DeleteEvent(ctx, eventID)
	})
	if err != nil {
		return entities.AsDomainError(err)
	}

	log.FromContext(ctx).WithField("event_id", eventID).Info("Event deleted")
	return nil
}

func (u *ManageEventsUsecase) CreateTicketType(
	ctx context.Context,
	actorID uuid.UUID,
	eventID uuid.UUID,
	req NewTicketTypeRequest,
) (entities.TicketType, error) {
	var tt entities.TicketType
	err := u.trManager.Do(ctx, func(ctx context.Context) error {
		event, err := u.eventsRepo.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if err := u.canManage(ctx, actorID, event); err != nil {
			return err
		}

		tt, err = entities.NewTicketType(event.ID, req.Name, req.Price, req.Quantity)
		if err != nil {
			return err
		}
		return u.ticketTypesRepo.CreateTicketType(ctx, tt)
	})
	if err != nil {
		return entities.TicketType{}, entities.AsDomainError(err)
	}

	return tt, nil
}

// AdjustTotal changes the capacity of a ticket type. Units already sold stay
// sold, so capacity cannot drop below them.
func (u *ManageEventsUsecase) AdjustTotal(ctx context.Context, actorID, ticketTypeID uuid.UUID, newQuantity int) (entities.TicketType, error) {
	var tt entities.TicketType
	err := u.trManager.Do(ctx, func(ctx context.Context) error {
		current, err := u.ticketTypesRepo.GetTicketType(ctx, ticketTypeID)
		if err != nil {
			return err
		}
		event, err := u.eventsRepo.GetEvent(ctx, current.EventID)
		if err != nil {
			return err
		}
		if err := u.canManage(ctx, actorID, event); err != nil {
			return err
		}

		tt, err = u.ticketTypesRepo.AdjustTotal(ctx, ticketTypeID, newQuantity)
		return err
	})
	if err != nil {
		return entities.TicketType{}, entities.AsDomainError(err)
	}

	log.FromContext(ctx).
		WithField("ticket_type_id", tt.ID).
		WithField("quantity", tt.Quantity).
		WithField("remaining", tt.Remaining).
		Info("Ticket type capacity adjusted")
	return tt, nil
}

func (u *ManageEventsUsecase) DeleteTicketType(ctx context.Context, actorID, ticketTypeID uuid.UUID) error {
	err := u.trManager.Do(ctx, func(ctx context.Context) error {
		current, err := u.ticketTypesRepo.GetTicketType(ctx, ticketTypeID)
		if err != nil {
			return err
		}
		event, err := u.eventsRepo.GetEvent(ctx, current.EventID)
		if err != nil {
			return err
		}
		if err := u.canManage(ctx, actorID, event); err != nil {
			return err
		}
		return u.ticketTypesRepo.DeleteTicketType(ctx, ticketTypeID)
	})
	return entities.AsDomainError(err)
}

// canManage lets the creator of an event and editors change it.
func (u *ManageEventsUsecase) canManage(ctx context.Context, actorID uuid.UUID, event entities.Event) error {
	if actorID != uuid.Nil && event.CreatorID == actorID {
		return nil
	}
	return u.require(ctx, actorID, entities.CapabilityEditEvents, entities.CapabilityAdmin)
}

// require passes if the actor holds any of the capabilities. The first one
// is reported when none is held.
func (u *ManageEventsUsecase) require(ctx context.Context, actorID uuid.UUID, capabilities ...entities.Capability) error {
	if actorID == uuid.Nil {
		return entities.NewForbidden(actorID, capabilities[0])
	}

	for _, c := range capabilities {
		ok, err := u.capabilities.HasCapability(ctx, actorID, c)
		if err != nil {
			return entities.NewUnavailable(fmt.Errorf("failed to check capability: %w", err))
		}
		if ok {
			return nil
		}
	}
	return entities.NewForbidden(actorID, capabilities[0])
}
