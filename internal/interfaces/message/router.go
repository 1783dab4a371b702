package message

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ticketing/internal/entities"
	"ticketing/internal/interfaces/message/events"
	"ticketing/internal/poisonqueue"
)

func NewRouter(
	watermillLogger watermill.LoggerAdapter,
	redisClient *redis.Client,
	redisPublisher message.Publisher,

	eventHandler *events.Handler,

	marshaller cqrs.CommandEventMarshaler,
	eventProcessorConfig cqrs.EventProcessorConfig,

	datalakeRepo events.DatalakeRepository,
) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, err
	}

	if err := initMiddlewares(watermillLogger, router, redisPublisher); err != nil {
		return nil, err
	}

	eventProcessor, err := cqrs.NewEventProcessorWithConfig(router, eventProcessorConfig)
	if err != nil {
		return nil, err
	}

	err = eventProcessor.AddHandlers(eventHandler.EventHandlers()...)
	if err != nil {
		return nil, err
	}

	splitterSubscriber, err := newEventsSubscriber(redisClient, "events_splitter", watermillLogger)
	if err != nil {
		return nil, err
	}
	router.AddNoPublisherHandler(
		"events_splitter",
		events.EventsTopic,
		splitterSubscriber,
		func(msg *message.Message) error {
			eventName := marshaller.NameFromMessage(msg)
			if eventName == "" {
				return fmt.Errorf("cannot get event name from message")
			}

			return redisPublisher.Publish(events.PublicTopic(eventName), msg)
		},
	)

	saverSubscriber, err := newEventsSubscriber(redisClient, "events_saver", watermillLogger)
	if err != nil {
		return nil, err
	}
	router.AddNoPublisherHandler(
		"events_saver",
		events.EventsTopic,
		saverSubscriber,
		func(msg *message.Message) error {
			type Event struct {
				Header entities.EventHeader `json:"header"`
			}

			var event Event
			err := marshaller.Unmarshal(msg, &event)
			if err != nil {
				return err
			}

			eventName := marshaller.NameFromMessage(msg)
			if eventName == "" {
				return fmt.Errorf("cannot get event name from message")
			}

			id, err := uuid.Parse(event.Header.ID)
			if err != nil {
				return fmt.Errorf("failed to parse event id: %w", err)
			}

			err = datalakeRepo.SaveEvent(
				msg.Context(),
				entities.DatalakeEvent{
					ID:          id,
					PublishedAt: event.Header.PublishedAt,
					EventName:   eventName,
					Payload:     msg.Payload,
				},
			)
			if err != nil {
				return fmt.Errorf("failed to save event %s: %w", eventName, err)
			}

			return nil
		},
	)

	return router, nil
}

// each handler of the events topic needs its own consumer group to see
// every message
func newEventsSubscriber(
	redisClient *redis.Client,
	handlerName string,
	watermillLogger watermill.LoggerAdapter,
) (message.Subscriber, error) {
	return redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        redisClient,
		ConsumerGroup: "svc-ticketing." + handlerName,
	}, watermillLogger)
}

func initMiddlewares(
	watermillLogger watermill.LoggerAdapter,
	router *message.Router,
	publisher message.Publisher,
) error {
	poisonQueue, err := poisonqueue.NewMiddleware(publisher)
	if err != nil {
		return fmt.Errorf("failed to create poison queue middleware: %w", err)
	}

	router.AddMiddleware(events.TracingMiddleware)
	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(events.CorrelationIDMiddleware)
	router.AddMiddleware(events.LoggingMiddleware)

	// whatever still fails after retrying is parked for an operator
	router.AddMiddleware(poisonQueue)

	router.AddMiddleware(middleware.Retry{
		MaxRetries:      10,
		InitialInterval: time.Millisecond * 100,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          watermillLogger,
	}.Middleware)

	// skip marshalling errors before retrying
	router.AddMiddleware(events.SkipMarshallingErrorsMiddleware)
	router.AddMiddleware(events.MetricsMiddleware)

	return nil
}
