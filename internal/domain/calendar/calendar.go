// Package calendar holds the per-room, per-date manual state an administrator
// sets through bulk edits. Entries are sparse: a missing date is available at
// the room's default price.
package calendar

import (
	"context"
	"errors"
	"strings"
	"time"

	"lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/money"
)

var (
	ErrInvalidStatus = errors.New("calendar: status must be available, maintenance or blocked")
	ErrPriceRequired = errors.New("calendar: price is required for available dates")
	ErrPriceCurrency = errors.New("calendar: price currency must match the room currency")
	ErrEmptyBatch    = errors.New("calendar: updates must not be empty")
	ErrBatchTooLarge = errors.New("calendar: too many dates in one edit")
	ErrDuplicateDate = errors.New("calendar: date listed more than once")
	ErrDateRequired  = errors.New("calendar: date is required")
)

// ManualStatus is what an administrator may store for a date. Reserved is
// never stored; it is derived from the ledger.
type ManualStatus string

const (
	StatusAvailable   ManualStatus = "available"
	StatusMaintenance ManualStatus = "maintenance"
	StatusBlocked     ManualStatus = "blocked"
)

func ParseManualStatus(value string) (ManualStatus, error) {
	s := ManualStatus(strings.ToLower(strings.TrimSpace(value)))
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

func (s ManualStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusMaintenance, StatusBlocked:
		return true
	}
	return false
}

// Entry is one RoomDateEntry. Price is nil when the room default applies.
type Entry struct {
	RoomID    rooms.RoomID
	Date      time.Time
	Status    ManualStatus
	Price     *money.Money
	UpdatedAt time.Time
}

// Store persists entries. At most one entry exists per (room, date) and entries
// are only ever overwritten.
type Store interface {
	// Entries returns the stored entries of a room whose date lies in the
	// inclusive window, ordered by date.
	Entries(ctx context.Context, roomID rooms.RoomID, window daterange.Window) ([]Entry, error)
	Upsert(ctx context.Context, entries []Entry) error
}

// Update is a single line of a bulk edit request.
type Update struct {
	Date   time.Time
	Status ManualStatus
	Price  *money.Money
}

// NewEntry validates an update against the room it targets. Prices sent with a
// non-available status are dropped.
func NewEntry(room *rooms.Room, u Update, now time.Time) (Entry, error) {
	if u.Date.IsZero() {
		return Entry{}, ErrDateRequired
	}
	if !u.Status.Valid() {
		return Entry{}, ErrInvalidStatus
	}
	entry := Entry{
		RoomID:    room.ID,
		Date:      daterange.Day(u.Date),
		Status:    u.Status,
		UpdatedAt: now.UTC(),
	}
	if u.Status != StatusAvailable {
		return entry, nil
	}
	if u.Price == nil {
		return Entry{}, ErrPriceRequired
	}
	if u.Price.Currency != room.DefaultPrice.Currency {
		return Entry{}, ErrPriceCurrency
	}
	price := *u.Price
	entry.Price = &price
	return entry, nil
}

// EffectivePrice is the entry override or the room default.
func (e Entry) EffectivePrice(fallback money.Money) money.Money {
	if e.Price != nil {
		return *e.Price
	}
	return fallback
}
