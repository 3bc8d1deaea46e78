package booking

import (
	"context"

	"lodging/internal/app/dto"
	"lodging/internal/app/handlers/support"
	"lodging/internal/app/queries"
	"lodging/internal/app/uow"
	domainreservation "lodging/internal/domain/reservation"
	domainrooms "lodging/internal/domain/rooms"
)

const listRoomReservationsKey = "reservation.list_by_room"

type ListRoomReservationsQuery struct {
	RoomID string `validate:"required"`
}

func (q ListRoomReservationsQuery) Key() string { return listRoomReservationsKey }

// ListRoomReservationsHandler returns every reservation of a room, newest first.
type ListRoomReservationsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListRoomReservationsHandler) Handle(ctx context.Context, q ListRoomReservationsQuery) (dto.ReservationCollection, error) {
	scope, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	defer scope.Release()

	roomID := domainrooms.RoomID(q.RoomID)
	if _, err := support.FindRoom(scope.Ctx, scope.Unit, roomID); err != nil {
		return dto.ReservationCollection{}, err
	}
	list, err := scope.Unit.Reservations().ListByRoom(scope.Ctx, roomID)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	domainreservation.SortNewestFirst(list)
	return dto.MapReservations(roomID, list), nil
}

var _ queries.Handler[ListRoomReservationsQuery, dto.ReservationCollection] = (*ListRoomReservationsHandler)(nil)
