package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodging/internal/app/handlers/availability"
	"lodging/internal/app/uow"
	domainavailability "lodging/internal/domain/availability"
	domaincalendar "lodging/internal/domain/calendar"
	domainreservation "lodging/internal/domain/reservation"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/errs"
	"lodging/internal/domain/shared/money"
	"lodging/internal/infra/storage/memory"
)

const roomR = domainrooms.RoomID("R")

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func price(v int64) *int64 { return &v }

type fixture struct {
	store   *memory.Store
	factory memory.Factory
	handler *ApplyBulkEditHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	factory := memory.Factory{Store: store}
	ctx := context.Background()

	unit, err := factory.Begin(ctx, uow.TxOptions{Room: roomR})
	require.NoError(t, err)
	room := &domainrooms.Room{ID: roomR, MaxOccupancy: 2, DefaultPrice: money.Must(10000, "EUR")}
	require.NoError(t, unit.Rooms().Save(ctx, room))
	r, err := domainreservation.Confirm(domainreservation.ConfirmParams{
		ID:     "res-1",
		Room:   room,
		Range:  daterange.DateRange{CheckIn: day(10), CheckOut: day(13)},
		Guests: 2,
		Now:    day(1),
	})
	require.NoError(t, err)
	require.NoError(t, unit.Reservations().Insert(ctx, r))
	require.NoError(t, unit.Commit(ctx))

	return &fixture{
		store:   store,
		factory: factory,
		handler: &ApplyBulkEditHandler{UoWFactory: factory, Outbox: store.Outbox(), MaxDates: 31},
	}
}

func (f *fixture) resolve(t *testing.T, from, to int) domainavailability.Result {
	t.Helper()
	ctx := context.Background()
	unit, err := f.factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer unit.Rollback(ctx)
	w, err := daterange.NewWindow(day(from), day(to))
	require.NoError(t, err)
	res, err := availability.Load(ctx, unit, roomR, w)
	require.NoError(t, err)
	return res
}

func TestBulkEditRoundTrip(t *testing.T) {
	f := newFixture(t)

	res, err := f.handler.Handle(context.Background(), ApplyBulkEditCommand{
		RoomID: string(roomR),
		Updates: []BulkEditLine{
			{Date: day(20), Status: "blocked"},
			{Date: day(21), Status: "available", Price: price(14500)},
			{Date: day(22), Status: "maintenance", Price: price(1)},
		},
		Reason: "renovation",
	})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 3, res.Applied)

	resolved := f.resolve(t, 20, 22)
	d20, _ := resolved.At(day(20))
	d21, _ := resolved.At(day(21))
	d22, _ := resolved.At(day(22))
	assert.Equal(t, domainavailability.StatusBlocked, d20.Status)
	assert.Equal(t, domainavailability.StatusAvailable, d21.Status)
	assert.Equal(t, money.Must(14500, "EUR"), d21.EffectivePrice)
	assert.Equal(t, domainavailability.StatusMaintenance, d22.Status)
	assert.Equal(t, money.Must(10000, "EUR"), d22.EffectivePrice)

	pending := f.store.Outbox().Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "calendar.entries_updated", pending[0].Name)
	assert.Equal(t, "R", pending[0].Aggregate)
}

func TestBulkEditOverReservedNightRejectsWholeBatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.handler.Handle(context.Background(), ApplyBulkEditCommand{
		RoomID: string(roomR),
		Updates: []BulkEditLine{
			{Date: day(11), Status: "blocked"},
			{Date: day(20), Status: "blocked"},
		},
	})

	require.Error(t, err)
	assert.True(t, errs.IsConflict(err))
	assert.Equal(t, errs.CodeBulkEditRejected, errs.CodeOf(err))
	assert.Equal(t, []time.Time{day(11)}, errs.DatesOf(err))

	d20, _ := f.resolve(t, 20, 20).At(day(20))
	assert.Equal(t, domainavailability.StatusAvailable, d20.Status)
}

func TestBulkEditBoundaries(t *testing.T) {
	f := newFixture(t)

	_, err := f.handler.Handle(context.Background(), ApplyBulkEditCommand{
		RoomID:  string(roomR),
		Updates: []BulkEditLine{{Date: day(10), Status: "maintenance"}},
	})
	assert.Equal(t, []time.Time{day(10)}, errs.DatesOf(err), "check-in day is occupied")

	_, err = f.handler.Handle(context.Background(), ApplyBulkEditCommand{
		RoomID:  string(roomR),
		Updates: []BulkEditLine{{Date: day(13), Status: "maintenance"}},
	})
	assert.NoError(t, err, "check-out day is free")
}

func TestBulkEditValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name    string
		roomID  string
		updates []BulkEditLine
		kind    errs.Kind
	}{
		{name: "empty", roomID: string(roomR), kind: errs.KindValidation},
		{name: "missing price", roomID: string(roomR), updates: []BulkEditLine{{Date: day(20), Status: "available"}}, kind: errs.KindValidation},
		{name: "bad status", roomID: string(roomR), updates: []BulkEditLine{{Date: day(20), Status: "reserved"}}, kind: errs.KindValidation},
		{
			name:    "duplicate date",
			roomID:  string(roomR),
			updates: []BulkEditLine{{Date: day(20), Status: "blocked"}, {Date: day(20), Status: "maintenance"}},
			kind:    errs.KindValidation,
		},
		{name: "unknown room", roomID: "ghost", updates: []BulkEditLine{{Date: day(20), Status: "blocked"}}, kind: errs.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.handler.Handle(context.Background(), ApplyBulkEditCommand{RoomID: tc.roomID, Updates: tc.updates})
			require.Error(t, err)
			assert.Equal(t, tc.kind, errs.KindOf(err))
		})
	}
}

func TestBulkEditAfterCancellation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	unit, err := f.factory.Begin(ctx, uow.TxOptions{Room: roomR})
	require.NoError(t, err)
	r, err := unit.Reservations().ByID(ctx, "res-1")
	require.NoError(t, err)
	require.True(t, r.Cancel("", day(2)))
	require.NoError(t, unit.Reservations().Save(ctx, r))
	require.NoError(t, unit.Commit(ctx))

	_, err = f.handler.Handle(ctx, ApplyBulkEditCommand{
		RoomID:  string(roomR),
		Updates: []BulkEditLine{{Date: day(11), Status: "blocked"}},
	})
	assert.NoError(t, err)
}

// windowLog records the windows the handler reads through the calendar store.
type windowLog struct {
	windows []daterange.Window
}

func (l *windowLog) days() int {
	n := 0
	for _, w := range l.windows {
		n += w.Len()
	}
	return n
}

type loggingFactory struct {
	uow.UoWFactory
	log *windowLog
}

func (f loggingFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.UoWFactory.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return loggingUnit{UnitOfWork: unit, log: f.log}, nil
}

type loggingUnit struct {
	uow.UnitOfWork
	log *windowLog
}

func (u loggingUnit) Calendar() domaincalendar.Store {
	return loggingCalendar{Store: u.UnitOfWork.Calendar(), log: u.log}
}

type loggingCalendar struct {
	domaincalendar.Store
	log *windowLog
}

func (c loggingCalendar) Entries(ctx context.Context, roomID domainrooms.RoomID, window daterange.Window) ([]domaincalendar.Entry, error) {
	c.log.windows = append(c.log.windows, window)
	return c.Store.Entries(ctx, roomID, window)
}

func TestBulkEditReadsOnlyEditedDates(t *testing.T) {
	f := newFixture(t)
	log := &windowLog{}
	f.handler.UoWFactory = loggingFactory{UoWFactory: f.factory, log: log}

	first := time.Date(1, 1, 2, 0, 0, 0, 0, time.UTC)
	last := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	res, err := f.handler.Handle(context.Background(), ApplyBulkEditCommand{
		RoomID: string(roomR),
		Updates: []BulkEditLine{
			{Date: last, Status: "blocked"},
			{Date: first, Status: "maintenance"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, []daterange.Window{{From: first, To: first}, {From: last, To: last}}, log.windows)
	assert.Equal(t, 2, log.days())
}

func TestBulkEditFindsReservedDatesAcrossRuns(t *testing.T) {
	f := newFixture(t)

	_, err := f.handler.Handle(context.Background(), ApplyBulkEditCommand{
		RoomID: string(roomR),
		Updates: []BulkEditLine{
			{Date: day(8), Status: "blocked"},
			{Date: day(12), Status: "blocked"},
			{Date: day(11), Status: "blocked"},
			{Date: day(20), Status: "blocked"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, errs.CodeBulkEditRejected, errs.CodeOf(err))
	assert.Equal(t, []time.Time{day(11), day(12)}, errs.DatesOf(err))
}
