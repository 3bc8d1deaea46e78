// Package engine assembles the command and query buses of the booking engine
// from a storage backend and its supporting ports.
package engine

import (
	"log/slog"
	"time"

	"lodging/internal/app/commands"
	"lodging/internal/app/dto"
	"lodging/internal/app/handlers/availability"
	"lodging/internal/app/handlers/booking"
	"lodging/internal/app/handlers/calendar"
	"lodging/internal/app/middleware"
	"lodging/internal/app/outbox"
	"lodging/internal/app/policies"
	"lodging/internal/app/queries"
	"lodging/internal/app/uow"
)

type Limits struct {
	MaxWindowDays    int
	BulkEditMaxDates int
	BookingMaxNights int
}

// Dependencies lists the ports the engine runs on. UoWFactory, Outbox and
// Validator are required; a nil Idempotency store or Cache disables the
// matching middleware.
type Dependencies struct {
	UoWFactory  uow.UoWFactory
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	Idempotency middleware.IdempotencyStore
	Cache       policies.AvailabilityCache
	Validator   middleware.Validator
	Limits      Limits
	Logger      *slog.Logger
	Now         func() time.Time
}

type Engine struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// New registers every handler and wraps the buses. Commands pass, outermost
// first: logging, idempotency, validation, outbox flush, cache invalidation
// and the transaction. Flush and invalidation therefore only see committed
// writes.
func New(deps Dependencies) Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	encoder := deps.Encoder
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler[booking.CreateBookingCommand, *dto.Reservation](commandBus, &booking.CreateBookingHandler{
		UoWFactory: deps.UoWFactory,
		Outbox:     deps.Outbox,
		Encoder:    encoder,
		MaxNights:  deps.Limits.BookingMaxNights,
		Logger:     logger,
		Now:        deps.Now,
	})
	commands.RegisterHandler[booking.CancelReservationCommand, *dto.CancelResult](commandBus, &booking.CancelReservationHandler{
		UoWFactory: deps.UoWFactory,
		Outbox:     deps.Outbox,
		Encoder:    encoder,
		Logger:     logger,
		Now:        deps.Now,
	})
	commands.RegisterHandler[calendar.ApplyBulkEditCommand, *dto.BulkEditResult](commandBus, &calendar.ApplyBulkEditHandler{
		UoWFactory: deps.UoWFactory,
		Outbox:     deps.Outbox,
		Encoder:    encoder,
		MaxDates:   deps.Limits.BulkEditMaxDates,
		Logger:     logger,
		Now:        deps.Now,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[availability.ResolveAvailabilityQuery, dto.RoomAvailability](queryBus, &availability.ResolveAvailabilityHandler{
		UoWFactory:    deps.UoWFactory,
		Cache:         deps.Cache,
		MaxWindowDays: deps.Limits.MaxWindowDays,
		Logger:        logger,
	})
	queries.RegisterHandler[availability.QuoteStayQuery, dto.StayQuote](queryBus, &availability.QuoteStayHandler{
		UoWFactory: deps.UoWFactory,
		MaxNights:  deps.Limits.BookingMaxNights,
	})
	queries.RegisterHandler[booking.ListRoomReservationsQuery, dto.ReservationCollection](queryBus, &booking.ListRoomReservationsHandler{
		UoWFactory: deps.UoWFactory,
	})

	var idempotency, invalidation middleware.CommandMiddleware
	if deps.Idempotency != nil {
		idempotency = middleware.Idempotency(deps.Idempotency, nil)
	}
	if deps.Cache != nil {
		invalidation = middleware.CacheInvalidation(deps.Cache, logger)
	}

	return Engine{
		Commands: middleware.ChainCommands(
			commandBus,
			middleware.Logging(logger),
			idempotency,
			middleware.Validation(deps.Validator),
			middleware.OutboxFlush(deps.Outbox, logger),
			invalidation,
			middleware.Transaction(deps.UoWFactory, nil),
		),
		Queries: middleware.ChainQueries(
			queryBus,
			middleware.QueryLogging(logger),
			middleware.QueryValidation(deps.Validator),
		),
	}
}
