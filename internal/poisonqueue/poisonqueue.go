package poisonqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/redis/go-redis/v9"
)

// Topic receives messages whose handler kept failing after all retries.
const Topic = "poison-queue"

var ErrMessageNotFound = errors.New("message not found in poison queue")

type Message struct {
	ID      string
	Topic   string
	Handler string
	Reason  string
}

// Queue lets an operator inspect the poison queue and put messages back on
// their original topic once the cause is fixed.
type Queue struct {
	client      redis.UniversalClient
	publisher   message.Publisher
	unmarshaler redisstream.Unmarshaller
}

func NewQueue(client redis.UniversalClient, publisher message.Publisher) *Queue {
	return &Queue{
		client:      client,
		publisher:   publisher,
		unmarshaler: redisstream.DefaultMarshallerUnmarshaller{},
	}
}

func NewMiddleware(publisher message.Publisher) (message.HandlerMiddleware, error) {
	return middleware.PoisonQueue(publisher, Topic)
}

func (q *Queue) Preview(ctx context.Context) ([]Message, error) {
	entries, err := q.client.XRange(ctx, Topic, "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read poison queue: %w", err)
	}

	res := make([]Message, 0, len(entries))
	for _, entry := range entries {
		msg, err := q.unmarshaler.Unmarshal(entry.Values)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal poison queue entry %s: %w", entry.ID, err)
		}
		res = append(res, toMessage(msg))
	}

	return res, nil
}

func (q *Queue) Remove(ctx context.Context, id string) error {
	entryID, _, err := q.find(ctx, id)
	if err != nil {
		return err
	}

	return q.client.XDel(ctx, Topic, entryID).Err()
}

// Requeue publishes the message to the topic it was poisoned on and drops it
// from the queue. A crash in between leaves a duplicate, which the handlers
// tolerate as they are idempotent.
func (q *Queue) Requeue(ctx context.Context, id string) error {
	entryID, msg, err := q.find(ctx, id)
	if err != nil {
		return err
	}

	topic := msg.Metadata.Get(middleware.PoisonedTopicKey)
	if topic == "" {
		return fmt.Errorf("message %s has no original topic", id)
	}

	for _, key := range []string{
		middleware.PoisonedTopicKey,
		middleware.PoisonedHandlerKey,
		middleware.PoisonedSubscriberKey,
		middleware.ReasonForPoisonedKey,
	} {
		delete(msg.Metadata, key)
	}

	if err := q.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to requeue message %s: %w", id, err)
	}

	return q.client.XDel(ctx, Topic, entryID).Err()
}

func (q *Queue) find(ctx context.Context, id string) (string, *message.Message, error) {
	entries, err := q.client.XRange(ctx, Topic, "-", "+").Result()
	if err != nil {
		return "", nil, fmt.Errorf("failed to read poison queue: %w", err)
	}

	for _, entry := range entries {
		msg, err := q.unmarshaler.Unmarshal(entry.Values)
		if err != nil {
			continue
		}
		if msg.UUID == id {
			return entry.ID, msg, nil
		}
	}

	return "", nil, ErrMessageNotFound
}

func toMessage(msg *message.Message) Message {
	return Message{
		ID:      msg.UUID,
		Topic:   msg.Metadata.Get(middleware.PoisonedTopicKey),
		Handler: msg.Metadata.Get(middleware.PoisonedHandlerKey),
		Reason:  msg.Metadata.Get(middleware.ReasonForPoisonedKey),
	}
}
