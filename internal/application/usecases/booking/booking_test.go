package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing/internal/application/issuer"
	"ticketing/internal/application/passes"
	"ticketing/internal/application/usecases/booking"
	"ticketing/internal/application/usecases/fakes"
	"ticketing/internal/entities"
	"ticketing/internal/infrastructure/idgen"
)

var signingKey = []byte("0123456789abcdef0123456789abcdef")

type sentNotification struct {
	recipient string
	template  entities.TemplateKind
	data      map[string]string
}

type recordingNotifier struct {
	sent chan sentNotification
	err  error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(chan sentNotification, 100)}
}

func (n *recordingNotifier) Send(_ context.Context, recipient string, template entities.TemplateKind, data map[string]string) error {
	n.sent <- sentNotification{recipient: recipient, template: template, data: data}
	return n.err
}

func (n *recordingNotifier) wait(t *testing.T) sentNotification {
	t.Helper()
	select {
	case s := <-n.sent:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("notification was not sent")
		return sentNotification{}
	}
}

type fixture struct {
	store    *fakes.Store
	notifier *recordingNotifier
	usecase  *booking.BookTicketsUsecase
	signer   *passes.Signer

	event entities.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := fakes.NewStore()
	notifier := newRecordingNotifier()
	signer := passes.NewSigner(signingKey)
	ids := idgen.ShortUUID{}

	event, err := entities.NewEvent(uuid.New(), "Concert", "Main hall", time.Now().Add(24*time.Hour), time.Now().Add(26*time.Hour))
	require.NoError(t, err)
	event.IsPublished = true
	require.NoError(t, store.CreateEvent(context.Background(), event))

	usecase := booking.NewBookTicketsUsecase(
		store,
		store,
		store,
		store,
		store,
		issuer.NewIssuer(store, ids),
		store,
		store,
		notifier,
		signer,
		ids,
	)

	return &fixture{
		store:    store,
		notifier: notifier,
		usecase:  usecase,
		signer:   signer,
		event:    event,
	}
}

func (f *fixture) addTicketType(t *testing.T, name string, price string, quantity int) entities.TicketType {
	t.Helper()
	tt, err := entities.NewTicketType(f.event.ID, name, decimal.RequireFromString(price), quantity)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateTicketType(context.Background(), tt))
	return tt
}

func (f *fixture) remaining(t *testing.T, id uuid.UUID) int {
	t.Helper()
	tt, err := f.store.GetTicketType(context.Background(), id)
	require.NoError(t, err)
	return tt.Remaining
}

func (f *fixture) request(userID uuid.UUID, items ...entities.BookingItem) entities.CreateBookingRequest {
	return entities.CreateBookingRequest{
		EventID: f.event.ID,
		UserID:  userID,
		Attendee: entities.Attendee{
			Name:  "Grace Hopper",
			Email: "grace@example.com",
			Phone: "+1 555 0100",
		},
		Items: items,
	}
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)
	vip := f.addTicketType(t, "VIP", "120.50", 10)
	regular := f.addTicketType(t, "Regular", "40", 10)
	userID := uuid.New()

	b, err := f.usecase.CreateBooking(context.Background(), f.request(userID,
		entities.BookingItem{TicketTypeID: vip.ID, Quantity: 2},
		entities.BookingItem{TicketTypeID: regular.ID, Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, entities.BookingStatusConfirmed, b.Status)
	assert.Equal(t, "281.00", b.TotalAmount.StringFixed(2))
	assert.NotEmpty(t, b.PaymentRef)
	require.Len(t, b.Tickets, 3)

	numbers := map[string]struct{}{}
	for _, ticket := range b.Tickets {
		assert.Equal(t, b.ID, ticket.BookingID)
		assert.Regexp(t, `^TKT-[A-Z0-9]{10}$`, ticket.Number)
		numbers[ticket.Number] = struct{}{}
	}
	assert.Len(t, numbers, 3)

	assert.Equal(t, 8, f.remaining(t, vip.ID))
	assert.Equal(t, 9, f.remaining(t, regular.ID))

	published := f.store.Published()
	require.Len(t, published, 1)
	confirmed, ok := published[0].(*entities.BookingConfirmed_v1)
	require.True(t, ok)
	assert.Equal(t, b.ID, confirmed.BookingID)
	assert.Equal(t, "281.00", confirmed.TotalAmount)
	assert.Len(t, confirmed.Tickets, 3)

	sent := f.notifier.wait(t)
	assert.Equal(t, "grace@example.com", sent.recipient)
	assert.Equal(t, entities.TemplateBookingConfirmed, sent.template)

	pass, err := f.signer.Parse(sent.data["pass"])
	require.NoError(t, err)
	assert.Equal(t, b.Pass(), pass)
}

func TestCreateBooking_concurrent_bookings_never_oversell(t *testing.T) {
	f := newFixture(t)
	tt := f.addTicketType(t, "General", "10", 2)

	const bookings = 3

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  []error
	)
	for i := 0; i < bookings; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.usecase.CreateBooking(context.Background(), f.request(uuid.New(),
				entities.BookingItem{TicketTypeID: tt.ID, Quantity: 1},
			))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rejected = append(rejected, err)
				return
			}
			succeeded++
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	require.Len(t, rejected, 1)
	assert.ErrorIs(t, rejected[0], entities.ErrInsufficientInventory)
	assert.Equal(t, 0, f.remaining(t, tt.ID))
	assert.Equal(t, 2, f.store.CountTickets(tt.ID))
}

func TestCreateBooking_conservation_under_load(t *testing.T) {
	f := newFixture(t)
	a := f.addTicketType(t, "A", "10", 25)
	b := f.addTicketType(t, "B", "20", 15)

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			items := []entities.BookingItem{{TicketTypeID: a.ID, Quantity: 1 + i%3}}
			if i%2 == 0 {
				items = append(items, entities.BookingItem{TicketTypeID: b.ID, Quantity: 1 + i%2})
			}
			_, _ = f.usecase.CreateBooking(context.Background(), f.request(uuid.New(), items...))
		}(i)
	}
	wg.Wait()

	for _, tt := range []entities.TicketType{a, b} {
		remaining := f.remaining(t, tt.ID)
		assert.GreaterOrEqual(t, remaining, 0)
		assert.Equal(t, tt.Quantity, f.store.CountTickets(tt.ID)+remaining, "ticket type %s", tt.Name)
	}
}

func TestCreateBooking_all_or_nothing(t *testing.T) {
	f := newFixture(t)
	a := f.addTicketType(t, "A", "10", 5)
	b := f.addTicketType(t, "B", "10", 1)

	_, err := f.usecase.CreateBooking(context.Background(), f.request(uuid.New(),
		entities.BookingItem{TicketTypeID: a.ID, Quantity: 2},
		entities.BookingItem{TicketTypeID: b.ID, Quantity: 2},
	))
	require.ErrorIs(t, err, entities.ErrInsufficientInventory)

	var domainErr *entities.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, b.ID.String(), domainErr.Details["ticket_type_id"])
	assert.Equal(t, "2", domainErr.Details["requested"])
	assert.Equal(t, "1", domainErr.Details["available"])

	assert.Equal(t, 5, f.remaining(t, a.ID))
	assert.Equal(t, 1, f.remaining(t, b.ID))
	assert.Equal(t, 0, f.store.CountTickets(a.ID))
	assert.Equal(t, 0, f.store.CountBookings(entities.BookingStatusPending))
	assert.Equal(t, 0, f.store.CountBookings(entities.BookingStatusConfirmed))
	assert.Empty(t, f.store.Published())
}

func TestCreateBooking_rolls_back_when_minting_fails(t *testing.T) {
	f := newFixture(t)
	tt := f.addTicketType(t, "A", "10", 5)

	f.store.FailOn("InsertTicket", 1, errors.New("connection reset"))

	_, err := f.usecase.CreateBooking(context.Background(), f.request(uuid.New(),
		entities.BookingItem{TicketTypeID: tt.ID, Quantity: 3},
	))
	require.ErrorIs(t, err, entities.ErrUnavailable)

	assert.Equal(t, 5, f.remaining(t, tt.ID))
	assert.Equal(t, 0, f.store.CountTickets(tt.ID))
	assert.Equal(t, 0, f.store.CountBookings(entities.BookingStatusPending))
	assert.Empty(t, f.store.Published())
}

func TestCreateBooking_rejections(t *testing.T) {
	f := newFixture(t)
	tt := f.addTicketType(t, "A", "10", 5)

	draft, err := entities.NewEvent(uuid.New(), "Draft", "", time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	require.NoError(t, f.store.CreateEvent(context.Background(), draft))
	draftTT, err := entities.NewTicketType(draft.ID, "A", decimal.NewFromInt(1), 5)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateTicketType(context.Background(), draftTT))

	testCases := []struct {
		name     string
		request  func() entities.CreateBookingRequest
		expected error
	}{
		{
			name: "unknown event",
			request: func() entities.CreateBookingRequest {
				r := f.request(uuid.New(), entities.BookingItem{TicketTypeID: tt.ID, Quantity: 1})
				r.EventID = uuid.New()
				return r
			},
			expected: entities.ErrNotFound,
		},
		{
			name: "unpublished event",
			request: func() entities.CreateBookingRequest {
				r := f.request(uuid.New(), entities.BookingItem{TicketTypeID: draftTT.ID, Quantity: 1})
				r.EventID = draft.ID
				return r
			},
			expected: entities.ErrNotPublished,
		},
		{
			name: "ticket type of another event",
			request: func() entities.CreateBookingRequest {
				return f.request(uuid.New(), entities.BookingItem{TicketTypeID: draftTT.ID, Quantity: 1})
			},
			expected: entities.ErrNotFound,
		},
		{
			name: "unknown ticket type",
			request: func() entities.CreateBookingRequest {
				return f.request(uuid.New(), entities.BookingItem{TicketTypeID: uuid.New(), Quantity: 1})
			},
			expected: entities.ErrNotFound,
		},
		{
			name: "zero quantity",
			request: func() entities.CreateBookingRequest {
				return f.request(uuid.New(), entities.BookingItem{TicketTypeID: tt.ID, Quantity: 0})
			},
			expected: entities.ErrInvalidInput,
		},
		{
			name: "malformed email",
			request: func() entities.CreateBookingRequest {
				r := f.request(uuid.New(), entities.BookingItem{TicketTypeID: tt.ID, Quantity: 1})
				r.Attendee.Email = "grace"
				return r
			},
			expected: entities.ErrInvalidInput,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.usecase.CreateBooking(context.Background(), tc.request())
			assert.ErrorIs(t, err, tc.expected)
		})
	}

	assert.Equal(t, 5, f.remaining(t, tt.ID))
	assert.Equal(t, 5, f.remaining(t, draftTT.ID))
}

func TestCreateBooking_notification_failure_is_ignored(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("mailer is down")
	tt := f.addTicketType(t, "A", "10", 5)

	b, err := f.usecase.CreateBooking(context.Background(), f.request(uuid.New(),
		entities.BookingItem{TicketTypeID: tt.ID, Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusConfirmed, b.Status)

	f.notifier.wait(t)

	stored, err := f.store.GetBooking(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusConfirmed, stored.Status)
}

func TestCreateBooking_notification_outlives_request_context(t *testing.T) {
	f := newFixture(t)
	tt := f.addTicketType(t, "A", "10", 5)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := f.usecase.CreateBooking(ctx, f.request(uuid.New(),
		entities.BookingItem{TicketTypeID: tt.ID, Quantity: 1},
	))
	cancel()
	require.NoError(t, err)

	f.notifier.wait(t)
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	a := f.addTicketType(t, "A", "10", 10)
	b := f.addTicketType(t, "B", "10", 10)
	userID := uuid.New()

	created, err := f.usecase.CreateBooking(context.Background(), f.request(userID,
		entities.BookingItem{TicketTypeID: a.ID, Quantity: 3},
		entities.BookingItem{TicketTypeID: b.ID, Quantity: 2},
	))
	require.NoError(t, err)
	f.notifier.wait(t)

	assert.Equal(t, 7, f.remaining(t, a.ID))
	assert.Equal(t, 8, f.remaining(t, b.ID))

	cancelled, err := f.usecase.CancelBooking(context.Background(), created.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCancelled, cancelled.Status)
	assert.Len(t, cancelled.Tickets, 5)
	assert.Equal(t, 1, f.store.Calls("ReleaseMany"), "units of all ticket types go back in one batch")

	assert.Equal(t, 10, f.remaining(t, a.ID))
	assert.Equal(t, 10, f.remaining(t, b.ID))

	published := f.store.Published()
	require.Len(t, published, 2)
	event, ok := published[1].(*entities.BookingCancelled_v1)
	require.True(t, ok)
	assert.ElementsMatch(t, []entities.ReleasedUnits{
		{TicketTypeID: a.ID, Quantity: 3},
		{TicketTypeID: b.ID, Quantity: 2},
	}, event.Released)

	sent := f.notifier.wait(t)
	assert.Equal(t, entities.TemplateBookingCancelled, sent.template)

	_, err = f.usecase.CancelBooking(context.Background(), created.ID, userID)
	assert.ErrorIs(t, err, entities.ErrWrongBookingStatus)

	assert.Equal(t, 10, f.remaining(t, a.ID))
	assert.Equal(t, 10, f.remaining(t, b.ID))
}

func TestCancelBooking_retries_when_the_database_aborts(t *testing.T) {
	f := newFixture(t)
	tt := f.addTicketType(t, "A", "10", 10)
	ownerID := uuid.New()

	created, err := f.usecase.CreateBooking(context.Background(), f.request(ownerID,
		entities.BookingItem{TicketTypeID: tt.ID, Quantity: 4},
	))
	require.NoError(t, err)

	f.store.FailOnce("ReleaseMany", &pq.Error{Code: "40P01"})

	cancelled, err := f.usecase.CancelBooking(context.Background(), created.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, 2, f.store.Calls("ReleaseMany"))
	assert.Equal(t, 10, f.remaining(t, tt.ID))

	published := f.store.Published()
	require.Len(t, published, 2)
	assert.IsType(t, &entities.BookingCancelled_v1{}, published[1])
}

func TestCancelBooking_rejected_once_a_ticket_is_admitted(t *testing.T) {
	f := newFixture(t)
	tt := f.addTicketType(t, "A", "10", 10)
	ownerID := uuid.New()

	created, err := f.usecase.CreateBooking(context.Background(), f.request(ownerID,
		entities.BookingItem{TicketTypeID: tt.ID, Quantity: 2},
	))
	require.NoError(t, err)

	usage, err := f.store.MarkUsed(context.Background(), created.Tickets[0].ID, time.Now())
	require.NoError(t, err)
	require.True(t, usage.Admitted)

	_, err = f.usecase.CancelBooking(context.Background(), created.ID, ownerID)
	require.ErrorIs(t, err, entities.ErrConflict)

	stored, err := f.store.GetBooking(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusConfirmed, stored.Status)
	assert.Equal(t, 8, f.remaining(t, tt.ID))
	assert.Zero(t, f.store.Calls("ReleaseMany"))
	assert.Len(t, f.store.Published(), 1)
}

func TestCreateBooking_waits_for_a_pending_unpublish(t *testing.T) {
	f := newFixture(t)
	tt := f.addTicketType(t, "A", "10", 10)

	locked := make(chan struct{})
	release := make(chan struct{})
	unpublished := make(chan error, 1)
	go func() {
		unpublished <- f.store.Do(context.Background(), func(ctx context.Context) error {
			event, err := f.store.GetEventForUpdate(ctx, f.event.ID)
			if err != nil {
				return err
			}
			close(locked)
			<-release

			event.IsPublished = false
			return f.store.UpdateEvent(ctx, event)
		})
	}()
	<-locked

	booked := make(chan error, 1)
	go func() {
		_, err := f.usecase.CreateBooking(context.Background(), f.request(uuid.New(),
			entities.BookingItem{TicketTypeID: tt.ID, Quantity: 1},
		))
		booked <- err
	}()

	select {
	case err := <-booked:
		t.Fatalf("booking finished while the event was locked: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-unpublished)

	select {
	case err := <-booked:
		assert.ErrorIs(t, err, entities.ErrNotPublished)
	case <-time.After(5 * time.Second):
		t.Fatal("booking did not finish")
	}

	assert.Equal(t, 10, f.remaining(t, tt.ID))
	assert.Zero(t, f.store.CountTickets(tt.ID))
	assert.Empty(t, f.store.Published())
}

func TestCancelBooking_authorization(t *testing.T) {
	f := newFixture(t)
	tt := f.addTicketType(t, "A", "10", 10)
	ownerID, strangerID, adminID := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, f.store.Grant(context.Background(), adminID, entities.CapabilityAdmin))

	created, err := f.usecase.CreateBooking(context.Background(), f.request(ownerID,
		entities.BookingItem{TicketTypeID: tt.ID, Quantity: 2},
	))
	require.NoError(t, err)

	_, err = f.usecase.CancelBooking(context.Background(), created.ID, strangerID)
	require.ErrorIs(t, err, entities.ErrForbidden)
	assert.Equal(t, 8, f.remaining(t, tt.ID))

	_, err = f.usecase.CancelBooking(context.Background(), created.ID, adminID)
	require.NoError(t, err)
	assert.Equal(t, 10, f.remaining(t, tt.ID))

	_, err = f.usecase.CancelBooking(context.Background(), uuid.New(), adminID)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestCancelBooking_concurrent_cancellations_release_once(t *testing.T) {
	f := newFixture(t)
	tt := f.addTicketType(t, "A", "10", 10)
	ownerID := uuid.New()

	created, err := f.usecase.CreateBooking(context.Background(), f.request(ownerID,
		entities.BookingItem{TicketTypeID: tt.ID, Quantity: 4},
	))
	require.NoError(t, err)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		errs   []error
		okRuns int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.usecase.CancelBooking(context.Background(), created.ID, ownerID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			okRuns++
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, okRuns)
	for _, err := range errs {
		assert.ErrorIs(t, err, entities.ErrWrongBookingStatus)
	}
	assert.Equal(t, 10, f.remaining(t, tt.ID))
}

func TestGetBookingByPass(t *testing.T) {
	f := newFixture(t)
	tt := f.addTicketType(t, "A", "10", 10)

	created, err := f.usecase.CreateBooking(context.Background(), f.request(uuid.New(),
		entities.BookingItem{TicketTypeID: tt.ID, Quantity: 2},
	))
	require.NoError(t, err)

	token, err := f.signer.Sign(created.Pass())
	require.NoError(t, err)

	b, err := f.usecase.GetBookingByPass(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, b.ID)
	assert.Len(t, b.Tickets, 2)

	forged, err := f.signer.Sign(entities.BookingPass{BookingID: created.ID, EventID: created.EventID, UserID: uuid.New()})
	require.NoError(t, err)
	_, err = f.usecase.GetBookingByPass(context.Background(), forged)
	assert.ErrorIs(t, err, entities.ErrNotFound)

	_, err = f.usecase.GetBookingByPass(context.Background(), "garbage")
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
}

func TestGetBooking(t *testing.T) {
	f := newFixture(t)
	tt := f.addTicketType(t, "A", "10", 10)
	ownerID := uuid.New()

	created, err := f.usecase.CreateBooking(context.Background(), f.request(ownerID,
		entities.BookingItem{TicketTypeID: tt.ID, Quantity: 1},
	))
	require.NoError(t, err)

	b, err := f.usecase.GetBooking(context.Background(), created.ID, ownerID)
	require.NoError(t, err)
	assert.Len(t, b.Tickets, 1)

	_, err = f.usecase.GetBooking(context.Background(), created.ID, uuid.New())
	assert.ErrorIs(t, err, entities.ErrForbidden)
}
