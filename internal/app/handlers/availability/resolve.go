package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"lodging/internal/app/dto"
	"lodging/internal/app/handlers/support"
	"lodging/internal/app/policies"
	"lodging/internal/app/queries"
	"lodging/internal/app/uow"
	domainavailability "lodging/internal/domain/availability"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/errs"
)

const resolveAvailabilityKey = "availability.resolve"

type ResolveAvailabilityQuery struct {
	RoomID string    `validate:"required"`
	From   time.Time `validate:"required"`
	To     time.Time `validate:"required"`
}

func (q ResolveAvailabilityQuery) Key() string { return resolveAvailabilityKey }

// ResolveAvailabilityHandler serves the read path. Reads run in a read-only
// unit and take no room lock.
type ResolveAvailabilityHandler struct {
	UoWFactory    uow.UoWFactory
	Cache         policies.AvailabilityCache
	MaxWindowDays int
	Logger        *slog.Logger

	group singleflight.Group
}

func (h *ResolveAvailabilityHandler) Handle(ctx context.Context, q ResolveAvailabilityQuery) (dto.RoomAvailability, error) {
	window, err := daterange.NewWindow(q.From, q.To)
	if err != nil {
		return dto.RoomAvailability{}, errs.Validation(errs.CodeInvalidRange, "from must not be after to", err)
	}
	if err := domainavailability.CheckWindow(window, h.MaxWindowDays); err != nil {
		return dto.RoomAvailability{}, errs.Validation(errs.CodeInvalidRange, fmt.Sprintf("window is limited to %d days", h.MaxWindowDays), err)
	}
	roomID := domainrooms.RoomID(q.RoomID)

	generation, cached := h.cached(ctx, roomID, window)
	if cached != nil {
		return *cached, nil
	}

	flightKey := fmt.Sprintf("%s|%d|%s|%s", roomID, generation, daterange.FormatDay(window.From), daterange.FormatDay(window.To))
	// The flight outlives any single caller; each caller still stops
	// waiting when its own context ends.
	flight := h.group.DoChan(flightKey, func() (any, error) {
		return h.load(context.WithoutCancel(ctx), roomID, window, generation)
	})
	select {
	case <-ctx.Done():
		return dto.RoomAvailability{}, ctx.Err()
	case r := <-flight:
		if r.Err != nil {
			return dto.RoomAvailability{}, r.Err
		}
		return r.Val.(dto.RoomAvailability), nil
	}
}

// cached returns the room generation and a cache hit, if any. Cache failures
// degrade to a miss.
func (h *ResolveAvailabilityHandler) cached(ctx context.Context, roomID domainrooms.RoomID, window daterange.Window) (int64, *dto.RoomAvailability) {
	if h.Cache == nil {
		return 0, nil
	}
	logger := support.Logger(h.Logger)
	generation, err := h.Cache.Generation(ctx, roomID)
	if err != nil {
		logger.Warn("availability cache unavailable", "room_id", roomID, "error", err)
		return -1, nil
	}
	value, ok, err := h.Cache.Get(ctx, roomID, generation, window)
	if err != nil {
		logger.Warn("availability cache read failed", "room_id", roomID, "error", err)
		return generation, nil
	}
	if !ok {
		return generation, nil
	}
	return generation, &value
}

func (h *ResolveAvailabilityHandler) load(ctx context.Context, roomID domainrooms.RoomID, window daterange.Window, generation int64) (dto.RoomAvailability, error) {
	scope, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.RoomAvailability{}, err
	}
	defer scope.Release()

	res, err := Load(scope.Ctx, scope.Unit, roomID, window)
	if err != nil {
		return dto.RoomAvailability{}, err
	}
	out := dto.MapAvailability(res)
	if h.Cache != nil && generation >= 0 {
		if err := h.Cache.Put(ctx, roomID, generation, window, out); err != nil && !errors.Is(err, context.Canceled) {
			support.Logger(h.Logger).Warn("availability cache write failed", "room_id", roomID, "error", err)
		}
	}
	return out, nil
}

var _ queries.Handler[ResolveAvailabilityQuery, dto.RoomAvailability] = (*ResolveAvailabilityHandler)(nil)
