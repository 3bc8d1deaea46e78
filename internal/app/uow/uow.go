package uow

import (
	"context"

	domaincalendar "lodging/internal/domain/calendar"
	domainreservation "lodging/internal/domain/reservation"
	domainrooms "lodging/internal/domain/rooms"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Rooms() domainrooms.Directory
	Calendar() domaincalendar.Store
	Reservations() domainreservation.Ledger

	// LockRoom serializes writers of one room until the unit ends. Units that
	// were begun with TxOptions.Room already hold that room's lock.
	LockRoom(ctx context.Context, id domainrooms.RoomID) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
	// Room, when set, is locked before the unit reads anything.
	Room domainrooms.RoomID
}

// RoomScoped is implemented by commands that write to a single, known room.
type RoomScoped interface {
	RoomScope() domainrooms.RoomID
}

// OptionsFor derives transaction options from a message. Room scoped messages
// get their room locked up front.
func OptionsFor(message any) TxOptions {
	if scoped, ok := message.(RoomScoped); ok {
		return TxOptions{Room: scoped.RoomScope()}
	}
	return TxOptions{}
}
