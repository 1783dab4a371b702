package booking

import (
	"context"
	"strings"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"

	"ticketing/internal/entities"
)

func (u *BookTicketsUsecase) notifyConfirmed(ctx context.Context, b entities.Booking) {
	numbers := make([]string, 0, len(b.Tickets))
	for _, t := range b.Tickets {
		numbers = append(numbers, t.Number)
	}

	data := map[string]string{
		"booking_id":     b.ID.String(),
		"event_id":       b.EventID.String(),
		"attendee_name":  b.Attendee.Name,
		"total_amount":   b.TotalAmount.StringFixed(2),
		"ticket_numbers": strings.Join(numbers, ","),
	}

	pass, err := u.passes.Sign(b.Pass())
	if err != nil {
		log.FromContext(ctx).WithError(err).WithField("booking_id", b.ID).Warn("Failed to sign booking pass")
	} else {
		data["pass"] = pass
	}

	u.notify(ctx, b.Attendee.Email, entities.TemplateBookingConfirmed, data)
}

// notify sends in the background after the transaction has committed. The
// request context may be cancelled by then, so only its values are kept.
func (u *BookTicketsUsecase) notify(ctx context.Context, recipient string, template entities.TemplateKind, data map[string]string) {
	logger := log.FromContext(ctx).
		WithField("template", template).
		WithField("booking_id", data["booking_id"])

	if recipient == "" {
		logger.WithError(errNoRecipient).Warn("Skipping notification")
		return
	}

	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, u.notifyTimeout)
		defer cancel()

		if err := u.notifier.Send(ctx, recipient, template, data); err != nil {
			logger.WithError(err).Warn("Failed to send notification")
			return
		}
		logger.Debug("Notification sent")
	}()
}
