package dto

import (
	"time"

	domainreservation "lodging/internal/domain/reservation"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
)

type Reservation struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	Nights     int       `json:"nights"`
	GuestCount int       `json:"guest_count"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (r Reservation) RoomScope() domainrooms.RoomID { return domainrooms.RoomID(r.RoomID) }

type ReservationCollection struct {
	RoomID string        `json:"room_id"`
	Items  []Reservation `json:"items"`
}

func MapReservation(r *domainreservation.Reservation) Reservation {
	return Reservation{
		ID:         string(r.ID),
		RoomID:     string(r.RoomID),
		CheckIn:    daterange.FormatDay(r.Range.CheckIn),
		CheckOut:   daterange.FormatDay(r.Range.CheckOut),
		Nights:     r.Range.Nights(),
		GuestCount: r.Guests,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func MapReservations(room domainrooms.RoomID, list []*domainreservation.Reservation) ReservationCollection {
	items := make([]Reservation, 0, len(list))
	for _, r := range list {
		items = append(items, MapReservation(r))
	}
	return ReservationCollection{RoomID: string(room), Items: items}
}

// CancelResult reports AlreadyCancelled when the call changed nothing.
type CancelResult struct {
	OK               bool   `json:"ok"`
	ReservationID    string `json:"reservation_id"`
	RoomID           string `json:"room_id"`
	AlreadyCancelled bool   `json:"already_cancelled"`
}

func (r CancelResult) RoomScope() domainrooms.RoomID { return domainrooms.RoomID(r.RoomID) }
