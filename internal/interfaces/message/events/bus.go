package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"

	"ticketing/internal/entities"
)

const (
	// EventsTopic receives every public event. From there events are stored
	// in the datalake and split into per-event topics.
	EventsTopic = "events"

	publicTopicPrefix   = "events."
	internalTopicPrefix = "internal-events.svc-ticketing."
)

func PublicTopic(eventName string) string {
	return publicTopicPrefix + eventName
}

func NewEventBus(
	pub message.Publisher,
	logger watermill.LoggerAdapter,
) (*cqrs.EventBus, error) {
	return cqrs.NewEventBusWithConfig(
		pub,
		cqrs.EventBusConfig{
			GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
				event, ok := params.Event.(entities.DomainEvent)
				if !ok {
					return "", fmt.Errorf("invalid event type: %T doesn't implement entities.DomainEvent", params.Event)
				}

				if event.IsInternal() {
					return internalTopicPrefix + params.EventName, nil
				}
				return EventsTopic, nil
			},
			Marshaler: Marshaler,
			Logger:    logger,
		},
	)
}
