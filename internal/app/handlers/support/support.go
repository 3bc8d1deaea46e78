// Package support holds helpers shared by the command and query handlers.
package support

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lodging/internal/app/uow"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/errs"
)

// FindRoom loads a room through the unit, reporting unknown ids as NotFound.
func FindRoom(ctx context.Context, unit uow.UnitOfWork, id domainrooms.RoomID) (*domainrooms.Room, error) {
	room, err := unit.Rooms().ByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainrooms.ErrRoomNotFound) {
			return nil, errs.NotFound(errs.CodeRoomNotFound, "room "+string(id)+" not found", err)
		}
		return nil, err
	}
	return room, nil
}

func Logger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

// Clock returns now, or time.Now when unset.
func Clock(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}
