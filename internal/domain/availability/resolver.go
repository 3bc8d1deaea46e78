// Package availability derives the effective state of room-nights from the
// calendar entries and confirmed reservations of a room. Everything here is a
// pure function of its input; loading the input is the caller's job.
package availability

import (
	"errors"
	"time"

	"lodging/internal/domain/calendar"
	"lodging/internal/domain/reservation"
	"lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/money"
)

var (
	ErrRoomRequired   = errors.New("availability: room is required")
	ErrOutsideWindow  = errors.New("availability: date outside resolved window")
	ErrWindowTooLarge = errors.New("availability: window exceeds the allowed number of days")
)

// DateStatus is the effective state of one date.
type DateStatus struct {
	Date           time.Time
	Status         Status
	EffectivePrice money.Money
	CanCheckIn     bool
	CanCheckOut    bool
}

type Input struct {
	Room         *rooms.Room
	Window       daterange.Window
	Entries      []calendar.Entry
	Reservations []*reservation.Reservation
}

// Result holds one DateStatus per day of the window, in date order.
type Result struct {
	RoomID rooms.RoomID
	Window daterange.Window
	days   []DateStatus
}

type marks struct {
	occupiedBy map[time.Time]reservation.ID
	checkIn    map[time.Time]bool
	checkOut   map[time.Time]bool
}

// Resolve merges manual entries with reservation overlaps for every day of
// the window. Entries of other rooms or outside the window are ignored, as are
// reservations that are not confirmed.
func Resolve(in Input) (Result, error) {
	if in.Room == nil {
		return Result{}, ErrRoomRequired
	}
	if err := in.Window.Validate(); err != nil {
		return Result{}, err
	}

	manual := make(map[time.Time]calendar.Entry, len(in.Entries))
	for _, e := range in.Entries {
		if e.RoomID != in.Room.ID || !in.Window.Contains(e.Date) {
			continue
		}
		manual[daterange.Day(e.Date)] = e
	}

	m := markReservations(in)

	days := in.Window.Days()
	out := make([]DateStatus, 0, len(days))
	for _, d := range days {
		entry, stored := manual[d]
		ds := DateStatus{Date: d, EffectivePrice: in.Room.DefaultPrice, Status: StatusAvailable}
		if stored {
			ds.EffectivePrice = entry.EffectivePrice(in.Room.DefaultPrice)
			ds.Status = FromManual(entry.Status)
		}

		_, occupied := m.occupiedBy[d]
		switch {
		case occupied && m.checkIn[d] && m.checkOut[d]:
			// One guest leaves the morning another arrives. The day is a
			// transition only; the manual status does not apply.
			ds.Status = StatusReserved
			ds.CanCheckIn = true
			ds.CanCheckOut = true
		case occupied:
			ds.Status = StatusReserved
			ds.CanCheckIn = false
			ds.CanCheckOut = m.checkIn[d] || m.checkOut[d]
		case m.checkOut[d]:
			ds.CanCheckIn = true
			ds.CanCheckOut = ds.Status == StatusAvailable
		default:
			open := ds.Status == StatusAvailable
			ds.CanCheckIn = open
			ds.CanCheckOut = open
		}
		out = append(out, ds)
	}
	return Result{RoomID: in.Room.ID, Window: in.Window, days: out}, nil
}

func markReservations(in Input) marks {
	m := marks{
		occupiedBy: make(map[time.Time]reservation.ID),
		checkIn:    make(map[time.Time]bool),
		checkOut:   make(map[time.Time]bool),
	}
	for _, r := range in.Reservations {
		if r == nil || r.RoomID != in.Room.ID || !r.Active() {
			continue
		}
		if !in.Window.Touches(r.Range) {
			continue
		}
		for _, night := range r.Range.EachNight() {
			m.occupiedBy[night] = r.ID
		}
		m.checkIn[r.Range.CheckIn] = true
		m.checkOut[r.Range.CheckOut] = true
	}
	return m
}

// At returns the status of a single day.
func (r Result) At(day time.Time) (DateStatus, bool) {
	idx := daterange.DaysBetween(r.Window.From, day)
	if idx < 0 || idx >= len(r.days) {
		return DateStatus{}, false
	}
	return r.days[idx], true
}

// Dates returns every resolved day in order.
func (r Result) Dates() []DateStatus {
	out := make([]DateStatus, len(r.days))
	copy(out, r.days)
	return out
}

// ReservedDates returns the given days that resolve to reserved, ascending.
func (r Result) ReservedDates(days []time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, d := range days {
		ds, ok := r.At(daterange.Day(d))
		if !ok {
			return nil, ErrOutsideWindow
		}
		if ds.Status == StatusReserved {
			out = append(out, ds.Date)
		}
	}
	return sortDays(out), nil
}

// StayConflicts lists the dates that stop a new stay from being booked: every
// night that is not available, the check-in date when no arrival is possible
// and the check-out date when no departure is possible. The window must cover
// the stay including its check-out date.
func (r Result) StayConflicts(stay daterange.DateRange) ([]time.Time, error) {
	if err := stay.Validate(); err != nil {
		return nil, err
	}
	if !r.Window.Contains(stay.CheckIn) || !r.Window.Contains(stay.CheckOut) {
		return nil, ErrOutsideWindow
	}
	conflicts := make(map[time.Time]struct{})
	for _, night := range stay.EachNight() {
		ds, _ := r.At(night)
		if ds.Status != StatusAvailable {
			conflicts[night] = struct{}{}
		}
	}
	if ds, _ := r.At(stay.CheckIn); !ds.CanCheckIn {
		conflicts[ds.Date] = struct{}{}
	}
	if ds, _ := r.At(stay.CheckOut); !ds.CanCheckOut {
		conflicts[ds.Date] = struct{}{}
	}
	out := make([]time.Time, 0, len(conflicts))
	for d := range conflicts {
		out = append(out, d)
	}
	return sortDays(out), nil
}

// CheckWindow bounds the number of days a caller may resolve at once.
func CheckWindow(w daterange.Window, maxDays int) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if maxDays > 0 && w.Len() > maxDays {
		return ErrWindowTooLarge
	}
	return nil
}
