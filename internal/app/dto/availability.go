package dto

import (
	"lodging/internal/domain/availability"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
)

type DateStatus struct {
	Status         availability.Status `json:"status"`
	EffectivePrice MoneyDTO            `json:"effective_price"`
	CanCheckIn     bool                `json:"can_check_in"`
	CanCheckOut    bool                `json:"can_check_out"`
}

// RoomAvailability is keyed by YYYY-MM-DD.
type RoomAvailability struct {
	RoomID string                `json:"room_id"`
	From   string                `json:"from"`
	To     string                `json:"to"`
	Dates  map[string]DateStatus `json:"dates"`
}

func MapAvailability(res availability.Result) RoomAvailability {
	days := res.Dates()
	out := RoomAvailability{
		RoomID: string(res.RoomID),
		From:   daterange.FormatDay(res.Window.From),
		To:     daterange.FormatDay(res.Window.To),
		Dates:  make(map[string]DateStatus, len(days)),
	}
	for _, ds := range days {
		out.Dates[daterange.FormatDay(ds.Date)] = DateStatus{
			Status:         ds.Status,
			EffectivePrice: MapMoney(ds.EffectivePrice),
			CanCheckIn:     ds.CanCheckIn,
			CanCheckOut:    ds.CanCheckOut,
		}
	}
	return out
}

type NightlyRate struct {
	Date  string   `json:"date"`
	Price MoneyDTO `json:"price"`
}

type StayQuote struct {
	RoomID   string        `json:"room_id"`
	CheckIn  string        `json:"check_in"`
	CheckOut string        `json:"check_out"`
	Nights   int           `json:"nights"`
	Lines    []NightlyRate `json:"lines"`
	Total    MoneyDTO      `json:"total"`
}

func MapQuote(room domainrooms.RoomID, stay daterange.DateRange, p availability.PriceBreakdown) StayQuote {
	lines := make([]NightlyRate, 0, len(p.Lines))
	for _, l := range p.Lines {
		lines = append(lines, NightlyRate{Date: daterange.FormatDay(l.Date), Price: MapMoney(l.Price)})
	}
	return StayQuote{
		RoomID:   string(room),
		CheckIn:  daterange.FormatDay(stay.CheckIn),
		CheckOut: daterange.FormatDay(stay.CheckOut),
		Nights:   p.Nights,
		Lines:    lines,
		Total:    MapMoney(p.Total),
	}
}
