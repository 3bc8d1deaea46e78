package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lodging/internal/app/commands"
	"lodging/internal/app/dto"
	"lodging/internal/app/handlers/availability"
	"lodging/internal/app/handlers/support"
	"lodging/internal/app/middleware"
	"lodging/internal/app/outbox"
	"lodging/internal/app/uow"
	domainreservation "lodging/internal/domain/reservation"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/errs"
)

const createBookingKey = "booking.create"

type CreateBookingCommand struct {
	// CommandID becomes the reservation id; one is generated when empty.
	CommandID       string
	RoomID          string    `validate:"required"`
	CheckIn         time.Time `validate:"required"`
	CheckOut        time.Time `validate:"required"`
	GuestCount      int       `validate:"gte=1"`
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &dto.Reservation{} }

func (c CreateBookingCommand) RoomScope() domainrooms.RoomID { return domainrooms.RoomID(c.RoomID) }

// CreateBookingHandler inserts a confirmed reservation. The availability check
// and the insert run in the same room-locked unit, so of two overlapping
// requests only the first to take the lock can see the nights as available.
type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	MaxNights  int
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.Reservation, error) {
	stay, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, errs.Validation(errs.CodeInvalidRange, "check_out must be after check_in", err)
	}
	if cmd.GuestCount < 1 {
		return nil, errs.Validation(errs.CodeInvalidInput, "guest_count must be at least 1", domainreservation.ErrInvalidGuests)
	}

	scope, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{Room: cmd.RoomScope()})
	if err != nil {
		return nil, err
	}
	defer scope.Release()
	ctx, unit := scope.Ctx, scope.Unit
	logger := support.Logger(h.Logger)

	room, err := support.FindRoom(ctx, unit, cmd.RoomScope())
	if err != nil {
		return nil, err
	}

	id := cmd.CommandID
	if id == "" {
		id = uuid.NewString()
	}
	r, err := domainreservation.Confirm(domainreservation.ConfirmParams{
		ID:        domainreservation.ID(id),
		Room:      room,
		Range:     stay,
		Guests:    cmd.GuestCount,
		MaxNights: h.MaxNights,
		Now:       support.Clock(h.Now),
	})
	if err != nil {
		return nil, mapConfirmError(err)
	}

	res, err := availability.LoadFor(ctx, unit, room, daterange.Stay(stay))
	if err != nil {
		return nil, err
	}
	conflicts, err := res.StayConflicts(stay)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		logger.Info("booking rejected", "room_id", room.ID, "check_in", daterange.FormatDay(stay.CheckIn), "check_out", daterange.FormatDay(stay.CheckOut), "conflicts", len(conflicts))
		return nil, errs.Conflict(errs.CodeDateRangeUnavailable, "requested dates are not available", conflicts, nil)
	}

	if err := unit.Reservations().Insert(ctx, r); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, r.Drain()); err != nil {
		return nil, err
	}
	if err := scope.Commit(); err != nil {
		return nil, err
	}

	logger.Info("booking created", "reservation_id", r.ID, "room_id", room.ID, "nights", stay.Nights(), "guests", r.Guests)
	out := dto.MapReservation(r)
	return &out, nil
}

func mapConfirmError(err error) error {
	switch {
	case errors.Is(err, domainreservation.ErrOccupancyExceeded):
		return errs.Conflict(errs.CodeOccupancyExceeded, "guest_count exceeds the room's maximum occupancy", nil, err)
	case errors.Is(err, domainreservation.ErrStayTooLong), errors.Is(err, daterange.ErrInvalidRange):
		return errs.Validation(errs.CodeInvalidRange, "invalid stay", err)
	case errors.Is(err, domainreservation.ErrInvalidGuests), errors.Is(err, domainreservation.ErrIDRequired):
		return errs.Validation(errs.CodeInvalidInput, "invalid booking", err)
	default:
		return err
	}
}

var _ commands.Handler[CreateBookingCommand, *dto.Reservation] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = CreateBookingCommand{}
var _ uow.RoomScoped = CreateBookingCommand{}
