package outbox

import (
	"context"
	"encoding/json"
	"log/slog"

	"lodging/internal/app/policies"
	domainrooms "lodging/internal/domain/rooms"
)

// Subscriber reacts to published event records.
type Subscriber interface {
	Handle(ctx context.Context, rec EventRecord) error
}

type SubscriberFunc func(ctx context.Context, rec EventRecord) error

func (f SubscriberFunc) Handle(ctx context.Context, rec EventRecord) error {
	return f(ctx, rec)
}

// Fanout delivers a record to every subscriber and returns the first error.
type Fanout []Subscriber

func (f Fanout) Handle(ctx context.Context, rec EventRecord) error {
	var first error
	for _, s := range f {
		if err := s.Handle(ctx, rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RoomCacheInvalidator drops cached availability for the room named in the
// payload of reservation and calendar events. It lets instances that did not
// perform a write forget their cached view of the room.
type RoomCacheInvalidator struct {
	Cache  policies.AvailabilityCache
	Logger *slog.Logger
}

type roomPayload struct {
	RoomID string `json:"room_id"`
}

func (h RoomCacheInvalidator) Handle(ctx context.Context, rec EventRecord) error {
	var p roomPayload
	if err := json.Unmarshal(rec.Payload, &p); err != nil {
		return err
	}
	if p.RoomID == "" || h.Cache == nil {
		return nil
	}
	if err := h.Cache.Invalidate(ctx, domainrooms.RoomID(p.RoomID)); err != nil {
		return err
	}
	if h.Logger != nil {
		h.Logger.Debug("availability cache invalidated", "room_id", p.RoomID, "event", rec.Name)
	}
	return nil
}

// EventLogger writes every record to the log.
type EventLogger struct {
	Logger *slog.Logger
}

func (l EventLogger) Handle(ctx context.Context, rec EventRecord) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "domain event", "event", rec.Name, "aggregate", rec.Aggregate, "id", rec.ID)
	return nil
}
