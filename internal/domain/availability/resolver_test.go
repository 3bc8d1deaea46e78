package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodging/internal/domain/calendar"
	"lodging/internal/domain/reservation"
	"lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/money"
)

var room = &rooms.Room{ID: "R", MaxOccupancy: 2, DefaultPrice: money.Must(10000, "EUR")}

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func window(t *testing.T, from, to int) daterange.Window {
	t.Helper()
	w, err := daterange.NewWindow(day(from), day(to))
	require.NoError(t, err)
	return w
}

func confirmed(id string, in, out int) *reservation.Reservation {
	return &reservation.Reservation{
		ID:     reservation.ID(id),
		RoomID: room.ID,
		Range:  daterange.DateRange{CheckIn: day(in), CheckOut: day(out)},
		Guests: 1,
		Status: reservation.StatusConfirmed,
	}
}

func resolve(t *testing.T, w daterange.Window, entries []calendar.Entry, res ...*reservation.Reservation) Result {
	t.Helper()
	out, err := Resolve(Input{Room: room, Window: w, Entries: entries, Reservations: res})
	require.NoError(t, err)
	return out
}

func at(t *testing.T, r Result, d int) DateStatus {
	t.Helper()
	ds, ok := r.At(day(d))
	require.True(t, ok)
	return ds
}

func TestResolveEmptyCalendarIsAvailableAtDefaultPrice(t *testing.T) {
	r := resolve(t, window(t, 1, 3), nil)

	require.Len(t, r.Dates(), 3)
	for _, ds := range r.Dates() {
		assert.Equal(t, StatusAvailable, ds.Status)
		assert.Equal(t, room.DefaultPrice, ds.EffectivePrice)
		assert.True(t, ds.CanCheckIn)
		assert.True(t, ds.CanCheckOut)
	}
}

func TestResolveReservationNightsAndBoundaries(t *testing.T) {
	r := resolve(t, window(t, 9, 14), nil, confirmed("a", 10, 13))

	cases := []struct {
		day      int
		status   Status
		checkIn  bool
		checkOut bool
	}{
		{day: 9, status: StatusAvailable, checkIn: true, checkOut: true},
		{day: 10, status: StatusReserved, checkIn: false, checkOut: true},
		{day: 11, status: StatusReserved, checkIn: false, checkOut: false},
		{day: 12, status: StatusReserved, checkIn: false, checkOut: false},
		{day: 13, status: StatusAvailable, checkIn: true, checkOut: true},
		{day: 14, status: StatusAvailable, checkIn: true, checkOut: true},
	}
	for _, tc := range cases {
		ds := at(t, r, tc.day)
		assert.Equal(t, tc.status, ds.Status, "day %d", tc.day)
		assert.Equal(t, tc.checkIn, ds.CanCheckIn, "can_check_in on day %d", tc.day)
		assert.Equal(t, tc.checkOut, ds.CanCheckOut, "can_check_out on day %d", tc.day)
	}
}

func TestResolveSingleDayOnCheckoutBoundary(t *testing.T) {
	r := resolve(t, window(t, 13, 13), nil, confirmed("a", 10, 13))

	ds := at(t, r, 13)
	assert.True(t, ds.CanCheckIn)
	assert.Equal(t, StatusAvailable, ds.Status)
}

func TestResolveDoubleBoundaryIgnoresManualStatus(t *testing.T) {
	entries := []calendar.Entry{{RoomID: room.ID, Date: day(13), Status: calendar.StatusBlocked}}
	r := resolve(t, window(t, 12, 14), entries, confirmed("a", 10, 13), confirmed("b", 13, 15))

	ds := at(t, r, 13)
	assert.Equal(t, StatusReserved, ds.Status)
	assert.True(t, ds.CanCheckIn)
	assert.True(t, ds.CanCheckOut)
}

func TestResolveCheckoutBoundaryKeepsManualStatus(t *testing.T) {
	entries := []calendar.Entry{{RoomID: room.ID, Date: day(13), Status: calendar.StatusMaintenance}}
	r := resolve(t, window(t, 13, 13), entries, confirmed("a", 10, 13))

	ds := at(t, r, 13)
	assert.Equal(t, StatusMaintenance, ds.Status)
	assert.True(t, ds.CanCheckIn)
	assert.False(t, ds.CanCheckOut)
}

func TestResolveManualEntriesAndPriceOverride(t *testing.T) {
	override := money.Must(15000, "EUR")
	entries := []calendar.Entry{
		{RoomID: room.ID, Date: day(2), Status: calendar.StatusAvailable, Price: &override},
		{RoomID: room.ID, Date: day(3), Status: calendar.StatusBlocked},
		{RoomID: "other", Date: day(4), Status: calendar.StatusBlocked},
	}
	r := resolve(t, window(t, 2, 4), entries)

	assert.Equal(t, override, at(t, r, 2).EffectivePrice)
	assert.Equal(t, StatusBlocked, at(t, r, 3).Status)
	assert.False(t, at(t, r, 3).CanCheckIn)
	assert.Equal(t, StatusAvailable, at(t, r, 4).Status)
}

func TestResolveIgnoresCancelledReservations(t *testing.T) {
	cancelled := confirmed("a", 10, 13)
	cancelled.Status = reservation.StatusCancelled
	r := resolve(t, window(t, 10, 12), nil, cancelled)

	for _, ds := range r.Dates() {
		assert.Equal(t, StatusAvailable, ds.Status)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	entries := []calendar.Entry{{RoomID: room.ID, Date: day(20), Status: calendar.StatusMaintenance}}
	res := []*reservation.Reservation{confirmed("a", 10, 13), confirmed("b", 13, 15)}

	first := resolve(t, window(t, 8, 22), entries, res...)
	second := resolve(t, window(t, 8, 22), entries, res...)

	assert.Equal(t, first.Dates(), second.Dates())
}

func TestResolveRejectsBadInput(t *testing.T) {
	_, err := Resolve(Input{Window: window(t, 1, 2)})
	assert.ErrorIs(t, err, ErrRoomRequired)

	_, err = Resolve(Input{Room: room, Window: daterange.Window{From: day(3), To: day(1)}})
	assert.ErrorIs(t, err, daterange.ErrInvalidWindow)
}

func TestStayConflicts(t *testing.T) {
	entries := []calendar.Entry{{RoomID: room.ID, Date: day(16), Status: calendar.StatusBlocked}}
	r := resolve(t, window(t, 9, 18), entries, confirmed("a", 10, 13))

	cases := []struct {
		name string
		in   int
		out  int
		want []time.Time
	}{
		{name: "back to back after", in: 13, out: 15},
		{name: "back to back before", in: 9, out: 10},
		{name: "inside reservation", in: 11, out: 12, want: []time.Time{day(11), day(12)}},
		{name: "covers reservation", in: 9, out: 14, want: []time.Time{day(10), day(11), day(12)}},
		{name: "blocked night", in: 14, out: 17, want: []time.Time{day(16)}},
		{name: "leave on blocked day", in: 14, out: 16, want: []time.Time{day(16)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.StayConflicts(daterange.DateRange{CheckIn: day(tc.in), CheckOut: day(tc.out)})
			require.NoError(t, err)
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := r.StayConflicts(daterange.DateRange{CheckIn: day(17), CheckOut: day(20)})
	assert.ErrorIs(t, err, ErrOutsideWindow)
}

func TestStayConflictsOnDoubleBoundary(t *testing.T) {
	r := resolve(t, window(t, 12, 16), nil, confirmed("a", 10, 13), confirmed("b", 13, 15))

	got, err := r.StayConflicts(daterange.DateRange{CheckIn: day(13), CheckOut: day(14)})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(13), day(14)}, got)
}

func TestReservedDates(t *testing.T) {
	r := resolve(t, window(t, 10, 20), nil, confirmed("a", 10, 13))

	got, err := r.ReservedDates([]time.Time{day(20), day(11), day(13)})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(11)}, got)

	_, err = r.ReservedDates([]time.Time{day(25)})
	assert.ErrorIs(t, err, ErrOutsideWindow)
}

func TestCheckWindow(t *testing.T) {
	assert.NoError(t, CheckWindow(window(t, 1, 30), 31))
	assert.ErrorIs(t, CheckWindow(window(t, 1, 30), 10), ErrWindowTooLarge)
}

func TestStatusText(t *testing.T) {
	text, err := StatusReserved.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "reserved", string(text))

	var s Status
	require.NoError(t, s.UnmarshalText([]byte("maintenance")))
	assert.Equal(t, StatusMaintenance, s)
	assert.ErrorIs(t, s.UnmarshalText([]byte("open")), ErrUnknownStatus)

	_, err = Status(0).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownStatus)
}
