package issuer_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing/internal/application/issuer"
	"ticketing/internal/application/issuer/mocks"
	"ticketing/internal/entities"
)

type sequenceIDs struct {
	ids []string
	i   int
}

func (s *sequenceIDs) NewID() string {
	id := s.ids[s.i%len(s.ids)]
	s.i++
	return id
}

func TestIssuer_Mint(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTicketsStore(ctrl)

	bookingID, ticketTypeID := uuid.New(), uuid.New()

	store.EXPECT().
		InsertTicket(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ticket entities.Ticket) (bool, error) {
			assert.Equal(t, bookingID, ticket.BookingID)
			assert.Equal(t, ticketTypeID, ticket.TicketTypeID)
			assert.Equal(t, "TKT-ABCDEFGHJK", ticket.Number)
			return true, nil
		})

	ticket, err := issuer.NewIssuer(store, &sequenceIDs{ids: []string{"abcdefghjkLMNOP"}}).
		Mint(context.Background(), bookingID, ticketTypeID)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, ticket.ID)
	assert.Nil(t, ticket.UsedAt)
}

func TestIssuer_Mint_retries_collisions(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTicketsStore(ctrl)

	var numbers []string
	gomock.InOrder(
		store.EXPECT().InsertTicket(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, ticket entities.Ticket) (bool, error) {
				numbers = append(numbers, ticket.Number)
				return false, nil
			}),
		store.EXPECT().InsertTicket(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, ticket entities.Ticket) (bool, error) {
				numbers = append(numbers, ticket.Number)
				return true, nil
			}),
	)

	ids := &sequenceIDs{ids: []string{"taken00000", "free000000"}}
	ticket, err := issuer.NewIssuer(store, ids).Mint(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, []string{"TKT-TAKEN00000", "TKT-FREE000000"}, numbers)
	assert.Equal(t, "TKT-FREE000000", ticket.Number)
}

func TestIssuer_Mint_gives_up_after_max_attempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTicketsStore(ctrl)

	store.EXPECT().InsertTicket(gomock.Any(), gomock.Any()).Return(false, nil).Times(5)

	_, err := issuer.NewIssuer(store, &sequenceIDs{ids: []string{"same"}}).
		Mint(context.Background(), uuid.New(), uuid.New())

	assert.ErrorIs(t, err, entities.ErrConflict)
}

func TestIssuer_Mint_store_error(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockTicketsStore(ctrl)

	store.EXPECT().InsertTicket(gomock.Any(), gomock.Any()).Return(false, fmt.Errorf("connection reset"))

	_, err := issuer.NewIssuer(store, &sequenceIDs{ids: []string{"x"}}).
		WithMaxAttempts(3).
		Mint(context.Background(), uuid.New(), uuid.New())

	require.Error(t, err)
	assert.NotErrorIs(t, err, entities.ErrConflict)
}

func TestTicketNumber(t *testing.T) {
	assert.Equal(t, "TKT-ABC", issuer.TicketNumber("abc"))
	assert.Equal(t, "TKT-0123456789", issuer.TicketNumber("0123456789abcdef"))
}
