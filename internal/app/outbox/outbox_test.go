package outbox_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodging/internal/app/dto"
	"lodging/internal/app/outbox"
	domaincalendar "lodging/internal/domain/calendar"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/events"
	"lodging/internal/infra/storage/memory"
)

type collectingOutbox struct {
	records []outbox.EventRecord
}

func (c *collectingOutbox) Add(ctx context.Context, rec outbox.EventRecord) error {
	c.records = append(c.records, rec)
	return nil
}

func (c *collectingOutbox) Flush(context.Context) error { return nil }

func TestRecordDomainEventsEncodesInOrder(t *testing.T) {
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	box := &collectingOutbox{}
	ids := []string{"a", "b"}
	encoder := outbox.JSONEventEncoder{IDGenerator: func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}}

	err := outbox.RecordDomainEvents(context.Background(), box, encoder, []events.DomainEvent{
		domaincalendar.EntriesUpdated{RoomID: "R", Reason: "paint", At: at},
		domaincalendar.EntriesUpdated{RoomID: "S", At: at},
	})
	require.NoError(t, err)

	require.Len(t, box.records, 2)
	assert.Equal(t, "a", box.records[0].ID)
	assert.Equal(t, "calendar.entries_updated", box.records[0].Name)
	assert.Equal(t, "R", box.records[0].Aggregate)
	assert.Equal(t, at, box.records[0].OccurredAt)
	assert.JSONEq(t, `{"room_id":"R","statuses":null,"reason":"paint","at":"2024-06-01T08:00:00Z"}`, string(box.records[0].Payload))
	assert.Equal(t, "b", box.records[1].ID)
}

func TestRecordDomainEventsWithoutOutbox(t *testing.T) {
	err := outbox.RecordDomainEvents(context.Background(), nil, nil, []events.DomainEvent{
		domaincalendar.EntriesUpdated{RoomID: "R"},
	})
	assert.NoError(t, err)
}

func TestDefaultEncoderGeneratesIDs(t *testing.T) {
	rec, err := outbox.JSONEventEncoder{}.Encode(domaincalendar.EntriesUpdated{RoomID: "R"})
	require.NoError(t, err)
	assert.Len(t, rec.ID, 36)
}

func TestRoomCacheInvalidatorBumpsGeneration(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewAvailabilityCache(time.Minute)
	w, _ := daterange.NewWindow(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, cache.Put(ctx, "R", 0, w, dto.RoomAvailability{RoomID: "R"}))

	sub := outbox.RoomCacheInvalidator{Cache: cache}
	require.NoError(t, sub.Handle(ctx, outbox.EventRecord{Name: "reservation.confirmed", Payload: []byte(`{"room_id":"R"}`)}))

	gen, _ := cache.Generation(ctx, "R")
	assert.Equal(t, int64(1), gen)
	_, ok, _ := cache.Get(ctx, "R", 0, w)
	assert.False(t, ok)

	assert.Error(t, sub.Handle(ctx, outbox.EventRecord{Payload: []byte("not json")}))
	assert.NoError(t, sub.Handle(ctx, outbox.EventRecord{Payload: []byte(`{}`)}))
}

func TestFanoutReachesEverySubscriber(t *testing.T) {
	boom := errors.New("boom")
	var calls int
	count := outbox.SubscriberFunc(func(context.Context, outbox.EventRecord) error {
		calls++
		return nil
	})
	fail := outbox.SubscriberFunc(func(context.Context, outbox.EventRecord) error { return boom })

	err := outbox.Fanout{count, fail, count}.Handle(context.Background(), outbox.EventRecord{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}
