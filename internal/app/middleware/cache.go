package middleware

import (
	"context"
	"log/slog"

	"lodging/internal/app/commands"
	"lodging/internal/app/policies"
	"lodging/internal/app/uow"
	domainrooms "lodging/internal/domain/rooms"
)

// CacheInvalidation drops cached availability of the room a successful command
// wrote to. The room is taken from the command or, failing that, its result.
func CacheInvalidation(cache policies.AvailabilityCache, logger *slog.Logger) CommandMiddleware {
	if cache == nil {
		panic("middleware: availability cache required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			room := scopeOf(cmd)
			if room == "" {
				room = scopeOf(res)
			}
			if room != "" {
				if err := cache.Invalidate(ctx, room); err != nil {
					logger.Warn("availability cache invalidation failed", "room_id", room, "error", err)
				}
			}
			return res, nil
		})
	}
}

func scopeOf(v any) domainrooms.RoomID {
	if scoped, ok := v.(uow.RoomScoped); ok {
		return scoped.RoomScope()
	}
	return ""
}
