package notifications

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"

	"ticketing/internal/entities"
)

//go:generate mockgen -destination=mocks/mock_command_sender.go -package=mocks ticketing/internal/infrastructure/notifications CommandSender
type CommandSender interface {
	Send(ctx context.Context, cmd any) error
}

// CommandBusNotifier hands notifications to the external mailer as
// SendNotification commands.
type CommandBusNotifier struct {
	commandBus CommandSender
}

func NewCommandBusNotifier(commandBus CommandSender) *CommandBusNotifier {
	return &CommandBusNotifier{commandBus: commandBus}
}

func (n *CommandBusNotifier) Send(
	ctx context.Context,
	recipient string,
	template entities.TemplateKind,
	data map[string]string,
) error {
	key := string(template) + "-" + data["booking_id"]
	cmd := &entities.SendNotification{
		Header:    entities.NewEventHeaderWithIdempotencyKey(key),
		Recipient: recipient,
		Template:  template,
		Data:      data,
	}

	if err := n.commandBus.Send(ctx, cmd); err != nil {
		return fmt.Errorf("failed to send %s notification: %w", template, err)
	}

	log.FromContext(ctx).
		WithField("template", template).
		WithField("idempotency_key", key).
		Debug("Notification command sent")
	return nil
}
