package event_publisher

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"ticketing/internal/observability"
)

// NewRedisPublisher returns a Redis Streams publisher that propagates the
// correlation id and trace context of every message.
func NewRedisPublisher(
	wlogger watermill.LoggerAdapter,
	redisClient *redis.Client,
) (message.Publisher, error) {
	var publisher message.Publisher
	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: redisClient,
	}, wlogger)
	if err != nil {
		return nil, err
	}

	publisher = observability.PublisherWithTracing{Publisher: publisher}
	publisher = CorrelationPublisherDecorator{Publisher: publisher}

	return publisher, nil
}
