package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodging/internal/domain/calendar"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/money"
)

func TestQuoteSumsEffectivePrices(t *testing.T) {
	weekend := money.Must(18000, "EUR")
	entries := []calendar.Entry{{RoomID: room.ID, Date: day(15), Status: calendar.StatusAvailable, Price: &weekend}}
	r := resolve(t, window(t, 14, 17), entries)

	q, err := r.Quote(daterange.DateRange{CheckIn: day(14), CheckOut: day(17)})
	require.NoError(t, err)

	assert.Equal(t, 3, q.Nights)
	require.Len(t, q.Lines, 3)
	assert.Equal(t, weekend, q.Lines[1].Price)
	assert.Equal(t, money.Must(38000, "EUR"), q.Total)
}

func TestQuoteRefusesUnavailableStay(t *testing.T) {
	r := resolve(t, window(t, 9, 14), nil, confirmed("a", 10, 13))

	_, err := r.Quote(daterange.DateRange{CheckIn: day(11), CheckOut: day(12)})

	require.ErrorIs(t, err, ErrStayUnavailable)
	var unavailable *StayUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, day(11), unavailable.Dates[0])
}
