package app

import (
	"context"
	"fmt"
	"os"

	commonHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ticketing/internal/config"
	"ticketing/internal/infrastructure/event_publisher"
	"ticketing/internal/interfaces/http"
	watermillMessage "ticketing/internal/interfaces/message"
	"ticketing/internal/interfaces/message/events"
	"ticketing/internal/outbox"
	"ticketing/internal/repository"
)

type App struct {
	watermillLogger watermill.LoggerAdapter
	logger          zerolog.Logger
	router          *message.Router
	forwarder       *outbox.Forwarder
	srv             *http.Server
	db              *sqlx.DB
}

func NewApp(
	cfg *config.Config,
	watermillLogger watermill.LoggerAdapter,
	redisClient *redis.Client,
	db *sqlx.DB,
) (*App, error) {
	trManager := trmanager.Must(trmsqlx.NewDefaultFactory(db))

	redisPublisher, err := event_publisher.NewRedisPublisher(watermillLogger, redisClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis publisher: %w", err)
	}

	eventBus, err := events.NewEventBus(redisPublisher, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}

	repos := newRepositories(db, trManager, eventBus)

	uc, err := newUsecases(cfg, repos, trManager, redisPublisher, watermillLogger)
	if err != nil {
		return nil, err
	}

	forwarder, err := outbox.NewForwarder(db, redisPublisher, outbox.DefaultForwarderConfig(), watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox forwarder: %w", err)
	}

	router, err := watermillMessage.NewRouter(
		watermillLogger,
		redisClient,
		redisPublisher,
		events.NewHandler(repos.attendance),
		events.Marshaler,
		events.NewEventProcessorConfig(redisClient, watermillLogger),
		repos.datalake,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	srv := http.NewServer(
		commonHTTP.NewEcho(),
		cfg.HTTPAddr,
		uc.events,
		uc.booking,
		uc.verification,
		repos.attendance,
		router.IsRunning,
	)

	return &App{
		watermillLogger: watermillLogger,
		logger:          zerolog.New(os.Stdout).With().Timestamp().Logger(),
		router:          router,
		forwarder:       forwarder,
		srv:             srv,
		db:              db,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := repository.InitializeDBSchema(a.db)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info().Msg("starting outbox forwarder")

		return a.forwarder.Run(ctx)
	})

	g.Go(func() error {
		a.logger.Info().Msg("starting router")

		return a.router.Run(ctx)
	})

	g.Go(func() error {
		<-a.router.Running()
		a.logger.Info().Msg("router is running")

		a.logger.Info().Msg("starting server")
		return a.srv.Start()
	})

	g.Go(func() error {
		// Shut down
		<-ctx.Done()

		err := a.srv.Stop(context.WithoutCancel(ctx))
		if err != nil {
			a.logger.Err(err).Msg("error stopping server")
		}

		return err
	})

	// Will block until all goroutines finish
	return g.Wait()
}
