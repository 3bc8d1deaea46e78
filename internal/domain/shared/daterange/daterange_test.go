package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDay(t *testing.T, v string) time.Time {
	t.Helper()
	d, err := ParseDay(v)
	require.NoError(t, err)
	return d
}

func TestDayDropsTimeAndLocation(t *testing.T) {
	loc := time.FixedZone("plus5", 5*3600)
	in := time.Date(2024, 6, 10, 23, 30, 0, 0, loc)

	got := Day(in)

	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), got)
}

func TestNewRejectsBackwardsAndEmptyRanges(t *testing.T) {
	d10 := mustDay(t, "2024-06-10")
	d13 := mustDay(t, "2024-06-13")

	_, err := New(d13, d10)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(d10, d10)
	assert.ErrorIs(t, err, ErrInvalidRange)

	dr, err := New(d10, d13)
	require.NoError(t, err)
	assert.Equal(t, 3, dr.Nights())
	assert.Equal(t, []time.Time{d10, mustDay(t, "2024-06-11"), mustDay(t, "2024-06-12")}, dr.EachNight())
}

func TestOverlapsTreatsBackToBackAsDisjoint(t *testing.T) {
	a := DateRange{CheckIn: mustDay(t, "2024-06-10"), CheckOut: mustDay(t, "2024-06-13")}
	b := DateRange{CheckIn: mustDay(t, "2024-06-13"), CheckOut: mustDay(t, "2024-06-15")}
	c := DateRange{CheckIn: mustDay(t, "2024-06-12"), CheckOut: mustDay(t, "2024-06-14")}

	assert.False(t, a.Overlaps(b))
	assert.True(t, a.Adjacent(b))
	assert.True(t, a.Overlaps(c))
	assert.True(t, c.Overlaps(b))
}

func TestWindowDaysAndTouches(t *testing.T) {
	w, err := NewWindow(mustDay(t, "2024-06-13"), mustDay(t, "2024-06-15"))
	require.NoError(t, err)
	assert.Equal(t, 3, w.Len())
	assert.Len(t, w.Days(), 3)

	endsOnFrom := DateRange{CheckIn: mustDay(t, "2024-06-10"), CheckOut: mustDay(t, "2024-06-13")}
	startsOnTo := DateRange{CheckIn: mustDay(t, "2024-06-15"), CheckOut: mustDay(t, "2024-06-18")}
	before := DateRange{CheckIn: mustDay(t, "2024-06-01"), CheckOut: mustDay(t, "2024-06-12")}

	assert.True(t, w.Touches(endsOnFrom))
	assert.True(t, w.Touches(startsOnTo))
	assert.False(t, w.Touches(before))

	_, err = NewWindow(mustDay(t, "2024-06-15"), mustDay(t, "2024-06-13"))
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestRunsGroupConsecutiveDays(t *testing.T) {
	runs := Runs([]time.Time{
		mustDay(t, "2024-06-20"),
		mustDay(t, "2024-06-11"),
		mustDay(t, "2024-06-12"),
		mustDay(t, "2024-06-12"),
		mustDay(t, "2024-06-13"),
	})
	require.Len(t, runs, 2)
	assert.Equal(t, Window{From: mustDay(t, "2024-06-11"), To: mustDay(t, "2024-06-13")}, runs[0])
	assert.Equal(t, Window{From: mustDay(t, "2024-06-20"), To: mustDay(t, "2024-06-20")}, runs[1])

	assert.Nil(t, Runs(nil))
}

func TestRunsOfFarApartDaysStaySmall(t *testing.T) {
	runs := Runs([]time.Time{mustDay(t, "9999-12-31"), mustDay(t, "0001-01-02")})
	require.Len(t, runs, 2)
	total := 0
	for _, w := range runs {
		total += w.Len()
	}
	assert.Equal(t, 2, total)
}

func TestParseDayRejectsTimestamps(t *testing.T) {
	_, err := ParseDay("2024-06-10T10:00:00Z")
	assert.ErrorIs(t, err, ErrInvalidDay)
}
