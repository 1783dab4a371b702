package app

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jmoiron/sqlx"

	"ticketing/internal/application/issuer"
	"ticketing/internal/application/passes"
	"ticketing/internal/application/usecases/booking"
	eventsusecase "ticketing/internal/application/usecases/events"
	"ticketing/internal/application/usecases/verification"
	"ticketing/internal/config"
	"ticketing/internal/infrastructure/idgen"
	"ticketing/internal/infrastructure/notifications"
	"ticketing/internal/interfaces/message/commands"
	"ticketing/internal/outbox"
	"ticketing/internal/repository"
)

type repositories struct {
	events       *repository.EventsRepo
	ticketTypes  *repository.TicketTypesRepo
	bookings     *repository.BookingsRepo
	tickets      *repository.TicketsRepo
	capabilities *repository.CapabilitiesRepo
	datalake     *repository.DatalakeRepo
	attendance   *repository.AttendanceReadModelRepo
}

type usecases struct {
	events       *eventsusecase.ManageEventsUsecase
	booking      *booking.BookTicketsUsecase
	verification *verification.VerifyTicketUsecase
}

func newRepositories(
	db *sqlx.DB,
	trManager *trmanager.Manager,
	eventBus *cqrs.EventBus,
) repositories {
	getter := trmsqlx.DefaultCtxGetter

	return repositories{
		events:       repository.NewEventsRepo(db, getter),
		ticketTypes:  repository.NewTicketTypesRepo(db, getter),
		bookings:     repository.NewBookingsRepo(db, getter),
		tickets:      repository.NewTicketsRepo(db, getter),
		capabilities: repository.NewCapabilitiesRepo(db),
		datalake:     repository.NewDatalakeRepo(db),
		attendance:   repository.NewAttendanceReadModelRepo(db, getter, trManager, eventBus),
	}
}

func newUsecases(
	cfg *config.Config,
	repos repositories,
	trManager *trmanager.Manager,
	redisPublisher message.Publisher,
	watermillLogger watermill.LoggerAdapter,
) (usecases, error) {
	commandBus, err := commands.NewCommandBus(redisPublisher, watermillLogger)
	if err != nil {
		return usecases{}, fmt.Errorf("failed to create command bus: %w", err)
	}

	ids := idgen.ShortUUID{}
	outboxPublisher := outbox.NewTxEventPublisher(trmsqlx.DefaultCtxGetter, watermillLogger)

	bookTickets := booking.NewBookTicketsUsecase(
		trManager,
		repos.events,
		repos.ticketTypes,
		repos.bookings,
		repos.tickets,
		issuer.NewIssuer(repos.tickets, ids),
		repos.capabilities,
		outboxPublisher,
		notifications.NewCommandBusNotifier(commandBus),
		passes.NewSigner([]byte(cfg.PassSigningKey)),
		ids,
		booking.WithNotifyTimeout(cfg.NotifyTimeout),
	)

	verifyTicket := verification.NewVerifyTicketUsecase(
		trManager,
		repos.tickets,
		repos.events,
		repos.capabilities,
		outboxPublisher,
		verification.WithEntryGrace(cfg.VerifyEntryGrace),
	)

	manageEvents := eventsusecase.NewManageEventsUsecase(
		trManager,
		repos.events,
		repos.ticketTypes,
		repos.capabilities,
	)

	return usecases{
		events:       manageEvents,
		booking:      bookTickets,
		verification: verifyTicket,
	}, nil
}
