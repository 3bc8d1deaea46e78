package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/events"
)

var (
	ErrInvalidGuests        = errors.New("reservation: guest count must be at least 1")
	ErrOccupancyExceeded    = errors.New("reservation: guest count exceeds room occupancy")
	ErrStayTooLong          = errors.New("reservation: stay exceeds the maximum number of nights")
	ErrReservationNotFound  = errors.New("reservation: not found")
	ErrIDRequired           = errors.New("reservation: id is required")
	ErrDuplicateReservation = errors.New("reservation: id already exists")
)

type ID string

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Reservation occupies the nights [CheckIn, CheckOut) of one room while it is
// confirmed. Cancelling releases the nights but keeps the record.
type Reservation struct {
	ID        ID
	RoomID    rooms.RoomID
	Range     daterange.DateRange
	Guests    int
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

// Ledger stores reservations.
type Ledger interface {
	ByID(ctx context.Context, id ID) (*Reservation, error)
	// Overlapping returns confirmed reservations of the room whose nights or
	// boundary dates fall inside the window.
	Overlapping(ctx context.Context, roomID rooms.RoomID, window daterange.Window) ([]*Reservation, error)
	ListByRoom(ctx context.Context, roomID rooms.RoomID) ([]*Reservation, error)
	Insert(ctx context.Context, r *Reservation) error
	Save(ctx context.Context, r *Reservation) error
}

type ConfirmParams struct {
	ID        ID
	Room      *rooms.Room
	Range     daterange.DateRange
	Guests    int
	MaxNights int
	Now       time.Time
}

// Confirm builds a confirmed reservation. The caller is responsible for having
// checked the nights against the calendar under the room lock.
func Confirm(params ConfirmParams) (*Reservation, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if params.MaxNights > 0 && params.Range.Nights() > params.MaxNights {
		return nil, ErrStayTooLong
	}
	if params.Guests < 1 {
		return nil, ErrInvalidGuests
	}
	if !params.Room.Accommodates(params.Guests) {
		return nil, ErrOccupancyExceeded
	}
	now := params.Now.UTC()
	r := &Reservation{
		ID:        params.ID,
		RoomID:    params.Room.ID,
		Range:     params.Range,
		Guests:    params.Guests,
		Status:    StatusConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.Record(Confirmed{
		ReservationID: string(r.ID),
		RoomID:        string(r.RoomID),
		CheckIn:       daterange.FormatDay(r.Range.CheckIn),
		CheckOut:      daterange.FormatDay(r.Range.CheckOut),
		Guests:        r.Guests,
		At:            now,
	})
	return r, nil
}

// Cancel flips the reservation to cancelled. It reports false when the
// reservation was already cancelled, in which case nothing changes.
func (r *Reservation) Cancel(reason string, now time.Time) bool {
	if r.Status == StatusCancelled {
		return false
	}
	r.Status = StatusCancelled
	r.UpdatedAt = now.UTC()
	r.Record(Cancelled{
		ReservationID: string(r.ID),
		RoomID:        string(r.RoomID),
		CheckIn:       daterange.FormatDay(r.Range.CheckIn),
		CheckOut:      daterange.FormatDay(r.Range.CheckOut),
		Reason:        reason,
		At:            r.UpdatedAt,
	})
	return true
}

func (r *Reservation) Active() bool {
	return r.Status == StatusConfirmed
}

// Clone copies the reservation without its pending events.
func (r *Reservation) Clone() *Reservation {
	if r == nil {
		return nil
	}
	return &Reservation{
		ID:        r.ID,
		RoomID:    r.RoomID,
		Range:     r.Range,
		Guests:    r.Guests,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Version:   r.Version,
	}
}
