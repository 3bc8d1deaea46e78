// Package availability answers availability and price questions for a room by
// loading its calendar and ledger and running the resolver.
package availability

import (
	"context"

	"lodging/internal/app/handlers/support"
	"lodging/internal/app/uow"
	domainavailability "lodging/internal/domain/availability"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
)

// Load resolves a window for a room through unit. Writers call it inside their
// room-locked unit so the result is authoritative for the write that follows.
func Load(ctx context.Context, unit uow.UnitOfWork, roomID domainrooms.RoomID, window daterange.Window) (domainavailability.Result, error) {
	room, err := support.FindRoom(ctx, unit, roomID)
	if err != nil {
		return domainavailability.Result{}, err
	}
	return LoadFor(ctx, unit, room, window)
}

// LoadFor is Load for a room that was already fetched.
func LoadFor(ctx context.Context, unit uow.UnitOfWork, room *domainrooms.Room, window daterange.Window) (domainavailability.Result, error) {
	entries, err := unit.Calendar().Entries(ctx, room.ID, window)
	if err != nil {
		return domainavailability.Result{}, err
	}
	reservations, err := unit.Reservations().Overlapping(ctx, room.ID, window)
	if err != nil {
		return domainavailability.Result{}, err
	}
	return domainavailability.Resolve(domainavailability.Input{
		Room:         room,
		Window:       window,
		Entries:      entries,
		Reservations: reservations,
	})
}
