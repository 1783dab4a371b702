package entities

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type ErrorKind string

const (
	ErrKindNotFound              ErrorKind = "NotFound"
	ErrKindNotPublished          ErrorKind = "NotPublished"
	ErrKindInsufficientInventory ErrorKind = "InsufficientInventory"
	ErrKindInvalidInput          ErrorKind = "InvalidInput"
	ErrKindForbidden             ErrorKind = "Forbidden"
	ErrKindWrongBookingStatus    ErrorKind = "WrongBookingStatus"
	ErrKindEventPassed           ErrorKind = "EventPassed"
	ErrKindAlreadyUsed           ErrorKind = "AlreadyUsed"
	ErrKindConflict              ErrorKind = "Conflict"
	ErrKindUnavailable           ErrorKind = "Unavailable"
)

// Error is a rejection that callers can render: Kind selects the message,
// Details says which entity or check it was about.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]string

	err error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = map[string]string{}
	}
	e.Details[key] = value
	return e
}

var (
	ErrNotFound              = &Error{Kind: ErrKindNotFound}
	ErrNotPublished          = &Error{Kind: ErrKindNotPublished}
	ErrInsufficientInventory = &Error{Kind: ErrKindInsufficientInventory}
	ErrInvalidInput          = &Error{Kind: ErrKindInvalidInput}
	ErrForbidden             = &Error{Kind: ErrKindForbidden}
	ErrWrongBookingStatus    = &Error{Kind: ErrKindWrongBookingStatus}
	ErrEventPassed           = &Error{Kind: ErrKindEventPassed}
	ErrAlreadyUsed           = &Error{Kind: ErrKindAlreadyUsed}
	ErrConflict              = &Error{Kind: ErrKindConflict}
	ErrUnavailable           = &Error{Kind: ErrKindUnavailable}
)

// KindOf returns the kind of a domain error, or Unavailable for anything else.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnavailable
}

// AsDomainError leaves domain errors untouched and turns everything else into
// an Unavailable error.
func AsDomainError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewUnavailable(err)
}

func NewNotFound(entity string, id string) *Error {
	return (&Error{
		Kind:    ErrKindNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}).WithDetail("entity", entity).WithDetail("id", id)
}

func NewNotPublished(eventID uuid.UUID) *Error {
	return (&Error{
		Kind:    ErrKindNotPublished,
		Message: fmt.Sprintf("event %s is not published", eventID),
	}).WithDetail("event_id", eventID.String())
}

func NewInsufficientInventory(ticketTypeID uuid.UUID, requested, available int) *Error {
	return (&Error{
		Kind:    ErrKindInsufficientInventory,
		Message: fmt.Sprintf("ticket type %s: requested %d, available %d", ticketTypeID, requested, available),
	}).
		WithDetail("ticket_type_id", ticketTypeID.String()).
		WithDetail("requested", fmt.Sprint(requested)).
		WithDetail("available", fmt.Sprint(available))
}

func NewInvalidInput(field, message string) *Error {
	return (&Error{
		Kind:    ErrKindInvalidInput,
		Message: message,
	}).WithDetail("field", field)
}

func NewForbidden(actorID uuid.UUID, capability Capability) *Error {
	return (&Error{
		Kind:    ErrKindForbidden,
		Message: fmt.Sprintf("actor %s lacks capability %q", actorID, capability),
	}).
		WithDetail("actor_id", actorID.String()).
		WithDetail("capability", string(capability))
}

func NewWrongBookingStatus(bookingID uuid.UUID, status BookingStatus) *Error {
	return (&Error{
		Kind:    ErrKindWrongBookingStatus,
		Message: fmt.Sprintf("booking %s is %s", bookingID, status),
	}).
		WithDetail("booking_id", bookingID.String()).
		WithDetail("status", string(status))
}

func NewConflict(message string) *Error {
	return &Error{
		Kind:    ErrKindConflict,
		Message: message,
	}
}

func NewUnavailable(err error) *Error {
	return &Error{
		Kind:    ErrKindUnavailable,
		Message: "service unavailable",
		err:     err,
	}
}
