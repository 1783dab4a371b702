package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
)

type ForwarderConfig struct {
	PollInterval   time.Duration
	ResendInterval time.Duration
	RetryInterval  time.Duration
}

func DefaultForwarderConfig() ForwarderConfig {
	return ForwarderConfig{
		PollInterval:   100 * time.Millisecond,
		ResendInterval: 100 * time.Millisecond,
		RetryInterval:  100 * time.Millisecond,
	}
}

// Forwarder moves committed outbox messages to the message broker.
type Forwarder struct {
	logger watermill.LoggerAdapter
	fwd    *forwarder.Forwarder
}

func NewForwarder(
	db *sqlx.DB,
	publisher message.Publisher,
	config ForwarderConfig,
	logger watermill.LoggerAdapter,
) (*Forwarder, error) {
	subscriber, err := watermillSQL.NewSubscriber(
		db,
		watermillSQL.SubscriberConfig{
			SchemaAdapter:  watermillSQL.DefaultPostgreSQLSchema{},
			OffsetsAdapter: watermillSQL.DefaultPostgreSQLOffsetsAdapter{},
			PollInterval:   config.PollInterval,
			ResendInterval: config.ResendInterval,
			RetryInterval:  config.RetryInterval,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox subscriber: %w", err)
	}

	err = subscriber.SubscribeInitialize(Topic)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize outbox table: %w", err)
	}

	fwd, err := forwarder.NewForwarder(subscriber, publisher,
		logger,
		forwarder.Config{
			ForwarderTopic: Topic,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create forwarder: %w", err)
	}

	return &Forwarder{
		fwd:    fwd,
		logger: logger,
	}, nil
}

// Run blocks until ctx is done.
func (f *Forwarder) Run(ctx context.Context) error {
	return f.fwd.Run(ctx)
}

func (f *Forwarder) Running() chan struct{} {
	return f.fwd.Running()
}
