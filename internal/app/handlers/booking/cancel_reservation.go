package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lodging/internal/app/commands"
	"lodging/internal/app/dto"
	"lodging/internal/app/handlers/support"
	"lodging/internal/app/outbox"
	"lodging/internal/app/uow"
	domainreservation "lodging/internal/domain/reservation"
	"lodging/internal/domain/shared/errs"
)

const cancelReservationKey = "reservation.cancel"

type CancelReservationCommand struct {
	ReservationID string `validate:"required"`
	Reason        string `validate:"max=500"`
}

func (c CancelReservationCommand) Key() string { return cancelReservationKey }

// CancelReservationHandler releases the nights of a reservation. Cancelling a
// cancelled reservation succeeds without side effects.
type CancelReservationHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *CancelReservationHandler) Handle(ctx context.Context, cmd CancelReservationCommand) (*dto.CancelResult, error) {
	scope, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer scope.Release()
	ctx, unit := scope.Ctx, scope.Unit

	id := domainreservation.ID(cmd.ReservationID)
	r, err := findReservation(ctx, unit, id)
	if err != nil {
		return nil, err
	}
	// The room is only known now; lock it and read again under the lock.
	if err := unit.LockRoom(ctx, r.RoomID); err != nil {
		return nil, err
	}
	if r, err = findReservation(ctx, unit, id); err != nil {
		return nil, err
	}

	result := &dto.CancelResult{OK: true, ReservationID: string(r.ID), RoomID: string(r.RoomID)}
	if !r.Cancel(cmd.Reason, support.Clock(h.Now)) {
		result.AlreadyCancelled = true
		return result, nil
	}
	if err := unit.Reservations().Save(ctx, r); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, r.Drain()); err != nil {
		return nil, err
	}
	if err := scope.Commit(); err != nil {
		return nil, err
	}

	support.Logger(h.Logger).Info("reservation cancelled", "reservation_id", r.ID, "room_id", r.RoomID, "reason", cmd.Reason)
	return result, nil
}

func findReservation(ctx context.Context, unit uow.UnitOfWork, id domainreservation.ID) (*domainreservation.Reservation, error) {
	r, err := unit.Reservations().ByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainreservation.ErrReservationNotFound) {
			return nil, errs.NotFound(errs.CodeReservationNotFound, "reservation "+string(id)+" not found", err)
		}
		return nil, err
	}
	return r, nil
}

var _ commands.Handler[CancelReservationCommand, *dto.CancelResult] = (*CancelReservationHandler)(nil)
