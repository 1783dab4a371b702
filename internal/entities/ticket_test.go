package entities_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"ticketing/internal/entities"
)

func TestParseTicketIdentifier(t *testing.T) {
	id := uuid.New()

	byID := entities.ParseTicketIdentifier(id.String())
	assert.Equal(t, entities.TicketByID, byID.Kind)
	assert.Equal(t, id, byID.ID)
	assert.True(t, byID.Valid())

	byNumber := entities.ParseTicketIdentifier(" tkt-abcdef1234 ")
	assert.Equal(t, entities.TicketByNumber, byNumber.Kind)
	assert.Equal(t, "TKT-ABCDEF1234", byNumber.Number)
	assert.True(t, byNumber.Valid())

	assert.False(t, entities.ParseTicketIdentifier("   ").Valid())
	assert.False(t, entities.TicketIDIdentifier(uuid.Nil).Valid())
	assert.False(t, entities.TicketIdentifier{}.Valid())
}

func TestError_Is(t *testing.T) {
	err := entities.NewInsufficientInventory(uuid.New(), 3, 1)

	assert.ErrorIs(t, err, entities.ErrInsufficientInventory)
	assert.NotErrorIs(t, err, entities.ErrNotFound)
	assert.Equal(t, entities.ErrKindInsufficientInventory, entities.KindOf(err))
	assert.Equal(t, "3", err.Details["requested"])
	assert.Equal(t, "1", err.Details["available"])
}

func TestAsDomainError(t *testing.T) {
	assert.NoError(t, entities.AsDomainError(nil))

	wrapped := entities.AsDomainError(assert.AnError)
	assert.ErrorIs(t, wrapped, entities.ErrUnavailable)
	assert.ErrorIs(t, wrapped, assert.AnError)

	notFound := entities.NewNotFound("event", "1")
	assert.Same(t, notFound, entities.AsDomainError(notFound))
}
