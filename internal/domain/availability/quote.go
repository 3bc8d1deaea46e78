package availability

import (
	"errors"
	"time"

	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/money"
)

var ErrStayUnavailable = errors.New("availability: stay is not bookable")

// NightlyRate is the effective price of one night of a stay.
type NightlyRate struct {
	Date  time.Time
	Price money.Money
}

// PriceBreakdown sums effective nightly prices over a stay. There are no fees,
// taxes or discounts; the per-date override is the whole price model.
type PriceBreakdown struct {
	Nights int
	Lines  []NightlyRate
	Total  money.Money
}

// StayUnavailableError carries the dates that block a quote.
type StayUnavailableError struct {
	Dates []time.Time
}

func (e *StayUnavailableError) Error() string {
	return ErrStayUnavailable.Error()
}

func (e *StayUnavailableError) Unwrap() error {
	return ErrStayUnavailable
}

// Quote prices a stay from a result covering [check-in, check-out]. Stays that
// cannot be booked are refused with a *StayUnavailableError.
func (r Result) Quote(stay daterange.DateRange) (PriceBreakdown, error) {
	conflicts, err := r.StayConflicts(stay)
	if err != nil {
		return PriceBreakdown{}, err
	}
	if len(conflicts) > 0 {
		return PriceBreakdown{}, &StayUnavailableError{Dates: conflicts}
	}
	nights := stay.EachNight()
	p := PriceBreakdown{Nights: len(nights), Lines: make([]NightlyRate, 0, len(nights))}
	for _, night := range nights {
		ds, _ := r.At(night)
		if p.Total.Currency == "" {
			p.Total = ds.EffectivePrice.Zero()
		}
		total, err := p.Total.Add(ds.EffectivePrice)
		if err != nil {
			return PriceBreakdown{}, err
		}
		p.Total = total
		p.Lines = append(p.Lines, NightlyRate{Date: night, Price: ds.EffectivePrice})
	}
	return p, nil
}
