package daterange

import (
	"errors"
	"sort"
	"time"
)

const (
	// DayLayout is the wire format for calendar days.
	DayLayout = "2006-01-02"
	day       = 24 * time.Hour
)

var (
	ErrInvalidRange  = errors.New("daterange: checkout must be after checkin")
	ErrInvalidWindow = errors.New("daterange: window end must not precede its start")
	ErrInvalidDay    = errors.New("daterange: day must be formatted as YYYY-MM-DD")
)

// Day truncates t to a UTC calendar day. The wall-clock date of t is kept,
// the time of day and location are dropped.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func ParseDay(value string) (time.Time, error) {
	t, err := time.Parse(DayLayout, value)
	if err != nil {
		return time.Time{}, ErrInvalidDay
	}
	return t, nil
}

func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// DaysBetween counts whole days from a to b (negative when b precedes a).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / day)
}

// DateRange represents a half-open interval [checkIn, checkOut) of nights.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	return DaysBetween(dr.CheckIn, dr.CheckOut)
}

// EachNight returns the first day of every night in the range.
func (dr DateRange) EachNight() []time.Time {
	n := dr.Nights()
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	for d := dr.CheckIn; d.Before(dr.CheckOut); d = d.Add(day) {
		out = append(out, d)
	}
	return out
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Day(t)
	return (t.Equal(dr.CheckIn) || t.After(dr.CheckIn)) && t.Before(dr.CheckOut)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.CheckOut.Equal(other.CheckIn) || dr.CheckIn.Equal(other.CheckOut)
}

// Window is the inclusive range of days [From, To] including both boundary dates.
// It is what calendars ask about; a DateRange is what stays occupy.
type Window struct {
	From time.Time
	To   time.Time
}

func NewWindow(from, to time.Time) (Window, error) {
	w := Window{From: Day(from), To: Day(to)}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

func (w Window) Validate() error {
	if w.From.IsZero() || w.To.IsZero() {
		return ErrInvalidWindow
	}
	if w.To.Before(w.From) {
		return ErrInvalidWindow
	}
	return nil
}

// Len is the number of days in the window.
func (w Window) Len() int {
	return DaysBetween(w.From, w.To) + 1
}

func (w Window) Days() []time.Time {
	n := w.Len()
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	for d := w.From; !d.After(w.To); d = d.Add(day) {
		out = append(out, d)
	}
	return out
}

func (w Window) Contains(t time.Time) bool {
	t = Day(t)
	return !t.Before(w.From) && !t.After(w.To)
}

// Touches reports whether a stay has at least one night or boundary date inside
// the window, i.e. checkIn <= To and checkOut >= From.
func (w Window) Touches(dr DateRange) bool {
	return !dr.CheckIn.After(w.To) && !dr.CheckOut.Before(w.From)
}

// Stay returns the inclusive window spanning a stay's check-in and check-out dates.
func Stay(dr DateRange) Window {
	return Window{From: dr.CheckIn, To: dr.CheckOut}
}

// Runs groups days into windows of consecutive dates, ascending. Duplicates
// collapse, so the windows hold exactly the given days.
func Runs(days []time.Time) []Window {
	if len(days) == 0 {
		return nil
	}
	sorted := make([]time.Time, 0, len(days))
	for _, d := range days {
		sorted = append(sorted, Day(d))
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	runs := []Window{{From: sorted[0], To: sorted[0]}}
	for _, d := range sorted[1:] {
		last := &runs[len(runs)-1]
		switch {
		case !d.After(last.To):
		case d.Equal(last.To.Add(day)):
			last.To = d
		default:
			runs = append(runs, Window{From: d, To: d})
		}
	}
	return runs
}
