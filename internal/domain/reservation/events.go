package reservation

import "time"

type Confirmed struct {
	ReservationID string    `json:"reservation_id"`
	RoomID        string    `json:"room_id"`
	CheckIn       string    `json:"check_in"`
	CheckOut      string    `json:"check_out"`
	Guests        int       `json:"guest_count"`
	At            time.Time `json:"at"`
}

func (e Confirmed) EventName() string     { return "reservation.confirmed" }
func (e Confirmed) AggregateID() string   { return e.ReservationID }
func (e Confirmed) OccurredAt() time.Time { return e.At }

type Cancelled struct {
	ReservationID string    `json:"reservation_id"`
	RoomID        string    `json:"room_id"`
	CheckIn       string    `json:"check_in"`
	CheckOut      string    `json:"check_out"`
	Reason        string    `json:"reason,omitempty"`
	At            time.Time `json:"at"`
}

func (e Cancelled) EventName() string     { return "reservation.cancelled" }
func (e Cancelled) AggregateID() string   { return e.ReservationID }
func (e Cancelled) OccurredAt() time.Time { return e.At }
