package notifications_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing/internal/entities"
	"ticketing/internal/infrastructure/notifications"
	"ticketing/internal/infrastructure/notifications/mocks"
)

func TestCommandBusNotifier_Send(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bus := mocks.NewMockCommandSender(ctrl)
	data := map[string]string{"booking_id": "b-1", "attendee_name": "Ada"}

	bus.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd any) error {
			sent, ok := cmd.(*entities.SendNotification)
			require.True(t, ok)
			assert.Equal(t, "ada@example.com", sent.Recipient)
			assert.Equal(t, entities.TemplateBookingConfirmed, sent.Template)
			assert.Equal(t, data, sent.Data)
			assert.Equal(t, "booking_confirmed-b-1", sent.Header.IdempotencyKey)
			return nil
		})

	notifier := notifications.NewCommandBusNotifier(bus)
	err := notifier.Send(context.Background(), "ada@example.com", entities.TemplateBookingConfirmed, data)
	require.NoError(t, err)
}

func TestCommandBusNotifier_Send_error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bus := mocks.NewMockCommandSender(ctrl)
	busErr := errors.New("redis down")
	bus.EXPECT().Send(gomock.Any(), gomock.Any()).Return(busErr)

	notifier := notifications.NewCommandBusNotifier(bus)
	err := notifier.Send(context.Background(), "ada@example.com", entities.TemplateBookingCancelled, map[string]string{})
	assert.ErrorIs(t, err, busErr)
}
