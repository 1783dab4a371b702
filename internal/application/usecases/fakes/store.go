// Package fakes keeps ticketing state in memory for usecase tests. It honours
// the same single-row atomicity and transaction rollback the Postgres
// repositories give, so concurrency properties can be tested without a
// database.
package fakes

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/google/uuid"

	"ticketing/internal/entities"
)

type txKey struct{}

type tx struct {
	undo      []func()
	published []any
	unlock    map[uuid.UUID]func()
}

type failure struct {
	after  int
	times  int
	failed int
	calls  int
	err    error
}

type Store struct {
	mu sync.Mutex

	events      map[uuid.UUID]entities.Event
	ticketTypes map[uuid.UUID]entities.TicketType
	bookings    map[uuid.UUID]entities.Booking
	tickets     map[uuid.UUID]entities.Ticket
	numbers     map[string]uuid.UUID
	caps        map[uuid.UUID]map[entities.Capability]bool
	rowLocks    map[uuid.UUID]*sync.RWMutex
	failures    map[string]*failure
	calls       map[string]int
	published   []any
}

func NewStore() *Store {
	return &Store{
		events:      map[uuid.UUID]entities.Event{},
		ticketTypes: map[uuid.UUID]entities.TicketType{},
		bookings:    map[uuid.UUID]entities.Booking{},
		tickets:     map[uuid.UUID]entities.Ticket{},
		numbers:     map[string]uuid.UUID{},
		caps:        map[uuid.UUID]map[entities.Capability]bool{},
		rowLocks:    map[uuid.UUID]*sync.RWMutex{},
		failures:    map[string]*failure{},
		calls:       map[string]int{},
	}
}

// FailOn makes method return err once it was called more than after times.
func (s *Store) FailOn(method string, after int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = &failure{after: after, err: err}
}

// FailOnce makes the next call of method return err.
func (s *Store) FailOnce(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = &failure{times: 1, err: err}
}

// Calls returns how many times method was called, failed calls included.
func (s *Store) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// must be called with s.mu held
func (s *Store) injected(method string) error {
	s.calls[method]++
	f, ok := s.failures[method]
	if !ok {
		return nil
	}
	f.calls++
	if f.calls <= f.after || (f.times > 0 && f.failed >= f.times) {
		return nil
	}
	f.failed++
	return f.err
}

// Do runs fn as one unit of work: on error every change made through ctx is
// undone and queued events are dropped. Nested calls join the outer unit.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*tx); ok {
		return fn(ctx)
	}

	t := &tx{unlock: map[uuid.UUID]func(){}}
	err := fn(context.WithValue(ctx, txKey{}, t))

	s.mu.Lock()
	if err != nil {
		for i := len(t.undo) - 1; i >= 0; i-- {
			t.undo[i]()
		}
	} else {
		s.published = append(s.published, t.published...)
	}
	s.mu.Unlock()

	for _, unlock := range t.unlock {
		unlock()
	}

	return err
}

func (s *Store) DoWithSettings(ctx context.Context, _ trm.Settings, fn func(ctx context.Context) error) error {
	return s.Do(ctx, fn)
}

// must be called with s.mu held
func (s *Store) onRollback(ctx context.Context, undo func()) {
	if t, ok := ctx.Value(txKey{}).(*tx); ok {
		t.undo = append(t.undo, undo)
	}
}

// lockRow emulates SELECT ... FOR UPDATE: the row stays locked until the
// unit of work in ctx ends. A row already locked by the same unit of work is
// not upgraded.
func (s *Store) lockRow(ctx context.Context, id uuid.UUID) {
	s.acquireRow(ctx, id, false)
}

// shareRow emulates SELECT ... FOR SHARE.
func (s *Store) shareRow(ctx context.Context, id uuid.UUID) {
	s.acquireRow(ctx, id, true)
}

func (s *Store) acquireRow(ctx context.Context, id uuid.UUID, shared bool) {
	t, ok := ctx.Value(txKey{}).(*tx)
	if !ok {
		return
	}
	if _, held := t.unlock[id]; held {
		return
	}

	s.mu.Lock()
	l, ok := s.rowLocks[id]
	if !ok {
		l = &sync.RWMutex{}
		s.rowLocks[id] = l
	}
	s.mu.Unlock()

	if shared {
		l.RLock()
		t.unlock[id] = l.RUnlock
		return
	}
	l.Lock()
	t.unlock[id] = l.Unlock
}

func (s *Store) Publish(ctx context.Context, event any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injected("Publish"); err != nil {
		return err
	}
	if t, ok := ctx.Value(txKey{}).(*tx); ok {
		t.published = append(t.published, event)
		return nil
	}
	s.published = append(s.published, event)
	return nil
}

// Published returns events of committed units of work.
func (s *Store) Published() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.published...)
}

func (s *Store) Grant(_ context.Context, userID uuid.UUID, capability entities.Capability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.caps[userID] == nil {
		s.caps[userID] = map[entities.Capability]bool{}
	}
	s.caps[userID][capability] = true
	return nil
}

func (s *Store) HasCapability(_ context.Context, actorID uuid.UUID, capability entities.Capability) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("HasCapability"); err != nil {
		return false, err
	}
	return s.caps[actorID][capability], nil
}

func (s *Store) CreateEvent(ctx context.Context, event entities.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("CreateEvent"); err != nil {
		return err
	}
	s.events[event.ID] = event
	s.onRollback(ctx, func() { delete(s.events, event.ID) })
	return nil
}

func (s *Store) GetEvent(_ context.Context, id uuid.UUID) (entities.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("GetEvent"); err != nil {
		return entities.Event{}, err
	}
	event, ok := s.events[id]
	if !ok {
		return entities.Event{}, entities.NewNotFound("event", id.String())
	}
	return event, nil
}

func (s *Store) GetEventForUpdate(ctx context.Context, id uuid.UUID) (entities.Event, error) {
	s.lockRow(ctx, id)
	return s.GetEvent(ctx, id)
}

func (s *Store) GetEventForShare(ctx context.Context, id uuid.UUID) (entities.Event, error) {
	s.shareRow(ctx, id)
	return s.GetEvent(ctx, id)
}

func (s *Store) UpdateEvent(ctx context.Context, event entities.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.events[event.ID]
	if !ok {
		return entities.NewNotFound("event", event.ID.String())
	}
	s.events[event.ID] = event
	s.onRollback(ctx, func() { s.events[event.ID] = prev })
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.events[id]
	if !ok {
		return entities.NewNotFound("event", id.String())
	}
	for _, b := range s.bookings {
		if b.EventID == id {
			return entities.NewConflict(fmt.Sprintf("event %s has bookings", id))
		}
	}

	delete(s.events, id)
	removed := map[uuid.UUID]entities.TicketType{}
	for ttID, tt := range s.ticketTypes {
		if tt.EventID == id {
			removed[ttID] = tt
			delete(s.ticketTypes, ttID)
		}
	}
	s.onRollback(ctx, func() {
		s.events[id] = prev
		for ttID, tt := range removed {
			s.ticketTypes[ttID] = tt
		}
	})
	return nil
}

func (s *Store) CreateTicketType(ctx context.Context, tt entities.TicketType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[tt.EventID]; !ok {
		return entities.NewNotFound("event", tt.EventID.String())
	}
	s.ticketTypes[tt.ID] = tt
	s.onRollback(ctx, func() { delete(s.ticketTypes, tt.ID) })
	return nil
}

func (s *Store) GetTicketType(_ context.Context, id uuid.UUID) (entities.TicketType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tt, ok := s.ticketTypes[id]
	if !ok {
		return entities.TicketType{}, entities.NewNotFound("ticket type", id.String())
	}
	return tt, nil
}

func (s *Store) ListByEvent(_ context.Context, eventID uuid.UUID) ([]entities.TicketType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.TicketType
	for _, tt := range s.ticketTypes {
		if tt.EventID == eventID {
			out = append(out, tt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) Reserve(ctx context.Context, id uuid.UUID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("Reserve"); err != nil {
		return err
	}

	tt, ok := s.ticketTypes[id]
	if !ok {
		return entities.NewNotFound("ticket type", id.String())
	}
	if tt.Remaining < quantity {
		return entities.NewInsufficientInventory(id, quantity, tt.Remaining)
	}

	tt.Remaining -= quantity
	s.ticketTypes[id] = tt
	s.onRollback(ctx, func() { s.addRemaining(id, quantity) })
	return nil
}

func (s *Store) Release(ctx context.Context, id uuid.UUID, quantity int) error {
	return s.ReleaseMany(ctx, map[uuid.UUID]int{id: quantity})
}

func (s *Store) ReleaseMany(ctx context.Context, units map[uuid.UUID]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("ReleaseMany"); err != nil {
		return err
	}

	for id := range units {
		if _, ok := s.ticketTypes[id]; !ok {
			return entities.NewNotFound("ticket type", id.String())
		}
	}
	for id, n := range units {
		before := s.ticketTypes[id].Remaining
		s.addRemaining(id, n)
		released := s.ticketTypes[id].Remaining - before
		s.onRollback(ctx, func() { s.addRemaining(id, -released) })
	}
	return nil
}

// must be called with s.mu held
func (s *Store) addRemaining(id uuid.UUID, n int) {
	tt := s.ticketTypes[id]
	tt.Remaining = min(tt.Quantity, tt.Remaining+n)
	s.ticketTypes[id] = tt
}

func (s *Store) AdjustTotal(ctx context.Context, id uuid.UUID, newQuantity int) (entities.TicketType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if newQuantity < 1 {
		return entities.TicketType{}, entities.NewInvalidInput("quantity", "quantity must be at least 1")
	}
	prev, ok := s.ticketTypes[id]
	if !ok {
		return entities.TicketType{}, entities.NewNotFound("ticket type", id.String())
	}
	remaining := prev.Remaining + newQuantity - prev.Quantity
	if remaining < 0 {
		return entities.TicketType{}, entities.NewInvalidInput("quantity", "quantity is below the number of sold tickets").
			WithDetail("sold", fmt.Sprint(prev.Sold()))
	}

	tt := prev
	tt.Quantity = newQuantity
	tt.Remaining = remaining
	s.ticketTypes[id] = tt
	s.onRollback(ctx, func() { s.ticketTypes[id] = prev })
	return tt, nil
}

func (s *Store) DeleteTicketType(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.ticketTypes[id]
	if !ok {
		return entities.NewNotFound("ticket type", id.String())
	}
	for _, t := range s.tickets {
		if t.TicketTypeID == id {
			return entities.NewConflict(fmt.Sprintf("ticket type %s has issued tickets", id))
		}
	}
	delete(s.ticketTypes, id)
	s.onRollback(ctx, func() { s.ticketTypes[id] = prev })
	return nil
}

func (s *Store) CreateBooking(ctx context.Context, b entities.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("CreateBooking"); err != nil {
		return err
	}
	b.Tickets = nil
	s.bookings[b.ID] = b
	s.onRollback(ctx, func() { delete(s.bookings, b.ID) })
	return nil
}

func (s *Store) GetBooking(_ context.Context, id uuid.UUID) (entities.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return entities.Booking{}, entities.NewNotFound("booking", id.String())
	}
	return b, nil
}

func (s *Store) GetBookingForUpdate(ctx context.Context, id uuid.UUID) (entities.Booking, error) {
	s.lockRow(ctx, id)
	return s.GetBooking(ctx, id)
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entities.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("UpdateStatus"); err != nil {
		return err
	}

	prev, ok := s.bookings[id]
	if !ok {
		return entities.NewNotFound("booking", id.String())
	}
	if prev.Status != from {
		return entities.NewWrongBookingStatus(id, prev.Status)
	}

	b := prev
	b.Status = to
	s.bookings[id] = b
	s.onRollback(ctx, func() { s.bookings[id] = prev })
	return nil
}

func (s *Store) InsertTicket(ctx context.Context, t entities.Ticket) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("InsertTicket"); err != nil {
		return false, err
	}

	if _, taken := s.numbers[t.Number]; taken {
		return false, nil
	}
	s.tickets[t.ID] = t
	s.numbers[t.Number] = t.ID
	s.onRollback(ctx, func() {
		delete(s.tickets, t.ID)
		delete(s.numbers, t.Number)
	})
	return true, nil
}

func (s *Store) ListByBooking(_ context.Context, bookingID uuid.UUID) ([]entities.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.Ticket
	for _, t := range s.tickets {
		if t.BookingID == bookingID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *Store) FindForVerification(
	_ context.Context,
	identifier entities.TicketIdentifier,
	eventID uuid.UUID,
) (entities.TicketAdmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("FindForVerification"); err != nil {
		return entities.TicketAdmission{}, err
	}

	id := identifier.ID
	if identifier.Kind == entities.TicketByNumber {
		id = s.numbers[identifier.Number]
	}

	t, ok := s.tickets[id]
	if !ok {
		return entities.TicketAdmission{}, entities.NewNotFound("ticket", identifier.String())
	}
	b := s.bookings[t.BookingID]
	if b.EventID != eventID {
		return entities.TicketAdmission{}, entities.NewNotFound("ticket", identifier.String())
	}

	return entities.TicketAdmission{
		Ticket:        t,
		EventID:       b.EventID,
		EventStart:    s.events[b.EventID].StartDate,
		BookingStatus: b.Status,
	}, nil
}

// MarkUsed admits the ticket only while its booking is CONFIRMED, holding a
// shared lock on the booking like the Postgres statement does.
func (s *Store) MarkUsed(ctx context.Context, ticketID uuid.UUID, at time.Time) (entities.TicketUsage, error) {
	s.mu.Lock()
	t, ok := s.tickets[ticketID]
	s.mu.Unlock()
	if !ok {
		return entities.TicketUsage{}, entities.NewNotFound("ticket", ticketID.String())
	}

	s.shareRow(ctx, t.BookingID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("MarkUsed"); err != nil {
		return entities.TicketUsage{}, err
	}

	t = s.tickets[ticketID]
	usage := entities.TicketUsage{
		UsedAt:        t.UsedAt,
		BookingStatus: s.bookings[t.BookingID].Status,
	}
	if usage.UsedAt != nil || usage.BookingStatus != entities.BookingStatusConfirmed {
		return usage, nil
	}

	usedAt := at
	t.UsedAt = &usedAt
	s.tickets[ticketID] = t
	s.onRollback(ctx, func() {
		t.UsedAt = nil
		s.tickets[ticketID] = t
	})

	usage.Admitted = true
	usage.UsedAt = &usedAt
	return usage, nil
}

// Ticket returns the stored ticket, for assertions.
func (s *Store) Ticket(id uuid.UUID) (entities.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	return t, ok
}

// CountTickets returns how many tickets of a type exist.
func (s *Store) CountTickets(ticketTypeID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tickets {
		if t.TicketTypeID == ticketTypeID {
			n++
		}
	}
	return n
}

// CountBookings returns how many bookings exist in the given status.
func (s *Store) CountBookings(status entities.BookingStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.bookings {
		if b.Status == status {
			n++
		}
	}
	return n
}
