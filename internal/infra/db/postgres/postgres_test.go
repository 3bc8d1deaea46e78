package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodging/internal/app/handlers/booking"
	"lodging/internal/app/middleware"
	appoutbox "lodging/internal/app/outbox"
	"lodging/internal/app/uow"
	domaincalendar "lodging/internal/domain/calendar"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/errs"
	"lodging/internal/domain/shared/money"
)

// These tests need a disposable database named by POSTGRES_TEST_DSN.
func testFactory(t *testing.T) Factory {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	db, err := Open(context.Background(), dsn, nil)
	require.NoError(t, err)
	return Factory{DB: db}
}

func seedRoom(t *testing.T, f Factory) domainrooms.RoomID {
	t.Helper()
	ctx := context.Background()
	id := domainrooms.RoomID("room-" + uuid.NewString())
	unit, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Rooms().Save(ctx, &domainrooms.Room{ID: id, MaxOccupancy: 2, DefaultPrice: money.Must(10000, "EUR")}))
	require.NoError(t, unit.Commit(ctx))
	return id
}

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestCalendarUpsertOverwrites(t *testing.T) {
	f := testFactory(t)
	room := seedRoom(t, f)
	ctx := context.Background()

	price := money.Must(12000, "EUR")
	for _, status := range []domaincalendar.ManualStatus{domaincalendar.StatusBlocked, domaincalendar.StatusAvailable} {
		unit, err := f.Begin(ctx, uow.TxOptions{Room: room})
		require.NoError(t, err)
		entry := domaincalendar.Entry{RoomID: room, Date: day(5), Status: status}
		if status == domaincalendar.StatusAvailable {
			entry.Price = &price
		}
		require.NoError(t, unit.Calendar().Upsert(ctx, []domaincalendar.Entry{entry}))
		require.NoError(t, unit.Commit(ctx))
	}

	unit, err := f.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer unit.Rollback(ctx)
	w, _ := daterange.NewWindow(day(1), day(10))
	entries, err := unit.Calendar().Entries(ctx, room, w)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domaincalendar.StatusAvailable, entries[0].Status)
	assert.Equal(t, &price, entries[0].Price)
	assert.Equal(t, day(5), entries[0].Date)
}

func TestConcurrentBookingsOnPostgres(t *testing.T) {
	f := testFactory(t)
	room := seedRoom(t, f)
	h := &booking.CreateBookingHandler{UoWFactory: f, Outbox: Outbox{DB: f.DB}, MaxNights: 30}

	var wg sync.WaitGroup
	results := make([]error, 6)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = h.Handle(context.Background(), booking.CreateBookingCommand{
				RoomID:     string(room),
				CheckIn:    day(10),
				CheckOut:   day(13),
				GuestCount: 1,
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errs.IsConflict(err), "unexpected error %v", err)
	}
	assert.Equal(t, 1, ok)
}

func TestIdempotencyStoreRoundTrip(t *testing.T) {
	f := testFactory(t)
	store := IdempotencyStore{DB: f.DB, TTL: time.Hour}
	ctx := context.Background()
	key := uuid.NewString()
	dates := []time.Time{day(11)}

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{
		Key:        key,
		Command:    "booking.create",
		ErrorKind:  string(errs.KindConflict),
		ErrorCode:  errs.CodeDateRangeUnavailable,
		ErrorDates: dates,
		OccurredAt: time.Now(),
	}))
	rec, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, dates, rec.ErrorDates)
	assert.Equal(t, errs.CodeDateRangeUnavailable, rec.ErrorCode)
}

func TestOutboxMaintenance(t *testing.T) {
	f := testFactory(t)
	box := Outbox{DB: f.DB}
	ctx := context.Background()

	id := uuid.NewString()
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: id, Name: "reservation.created", Payload: []byte(`{}`), OccurredAt: time.Now(), Aggregate: "res-1"}))
	msg, err := box.Claim(ctx, "worker-a")
	require.NoError(t, err)
	require.NotNil(t, msg)

	released, err := box.ReleaseStale(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, released, int64(1))

	require.NoError(t, box.MarkSent(ctx, id))
	pruned, err := box.PruneSent(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pruned, int64(1))
}
