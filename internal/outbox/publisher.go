package outbox

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"

	"ticketing/internal/infrastructure/event_publisher"
	"ticketing/internal/interfaces/message/events"
	"ticketing/internal/observability"
)

// Topic is the Postgres table messages wait in until the forwarder moves
// them to Redis.
const Topic = "events_to_forward"

var ErrNoTransaction = fmt.Errorf("no transaction in context")

// NewPublisher writes messages into the outbox table using tx, so they are
// committed or rolled back with the rest of the transaction.
func NewPublisher(
	tx watermillSQL.ContextExecutor,
	logger watermill.LoggerAdapter,
) (message.Publisher, error) {
	publisher, err := watermillSQL.NewPublisher(
		tx,
		watermillSQL.PublisherConfig{
			SchemaAdapter: watermillSQL.DefaultPostgreSQLSchema{},
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	var pub message.Publisher = forwarder.NewPublisher(publisher, forwarder.PublisherConfig{
		ForwarderTopic: Topic,
	})
	pub = observability.PublisherWithTracing{Publisher: pub}
	pub = event_publisher.CorrelationPublisherDecorator{Publisher: pub}

	return pub, nil
}

// TxEventPublisher publishes domain events through the outbox of the
// transaction carried by ctx.
type TxEventPublisher struct {
	getter *trmsqlx.CtxGetter
	logger watermill.LoggerAdapter
}

func NewTxEventPublisher(getter *trmsqlx.CtxGetter, logger watermill.LoggerAdapter) *TxEventPublisher {
	return &TxEventPublisher{
		getter: getter,
		logger: logger,
	}
}

func (p *TxEventPublisher) Publish(ctx context.Context, event any) error {
	tr := p.getter.DefaultTrOrDB(ctx, nil)
	if tr == nil {
		return ErrNoTransaction
	}

	publisher, err := NewPublisher(tr, p.logger)
	if err != nil {
		return fmt.Errorf("failed to create outbox publisher: %w", err)
	}

	eb, err := events.NewEventBus(publisher, p.logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}

	return eb.Publish(ctx, event)
}
