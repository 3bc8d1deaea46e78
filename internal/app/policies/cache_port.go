package policies

import (
	"context"

	"lodging/internal/app/dto"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
)

// AvailabilityCache keeps resolved availability per room. Entries are stored
// under a per-room generation; Invalidate moves the room to a new generation
// so results computed before a write can never be served after it.
type AvailabilityCache interface {
	Generation(ctx context.Context, room domainrooms.RoomID) (int64, error)
	Get(ctx context.Context, room domainrooms.RoomID, generation int64, window daterange.Window) (dto.RoomAvailability, bool, error)
	Put(ctx context.Context, room domainrooms.RoomID, generation int64, window daterange.Window, value dto.RoomAvailability) error
	Invalidate(ctx context.Context, room domainrooms.RoomID) error
}
