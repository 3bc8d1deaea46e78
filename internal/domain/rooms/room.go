package rooms

import (
	"context"
	"errors"
	"strings"
	"time"

	"lodging/internal/domain/shared/money"
)

var (
	ErrRoomNotFound      = errors.New("rooms: room not found")
	ErrIDRequired        = errors.New("rooms: id is required")
	ErrMaxOccupancy      = errors.New("rooms: max occupancy must be at least 1")
	ErrDefaultPriceUnset = errors.New("rooms: default price currency is required")
)

type RoomID string

type PropertyID string

// Room is the engine's read model of a room owned by the property collaborator.
// Only MaxOccupancy and DefaultPrice take part in availability and booking rules.
type Room struct {
	ID           RoomID
	PropertyID   PropertyID
	Name         string
	MaxOccupancy int
	DefaultPrice money.Money
	UpdatedAt    time.Time
}

// Directory exposes rooms to the engine. Implementations return ErrRoomNotFound
// for unknown ids.
type Directory interface {
	ByID(ctx context.Context, id RoomID) (*Room, error)
	Save(ctx context.Context, room *Room) error
}

type CreateRoomParams struct {
	ID           RoomID
	PropertyID   PropertyID
	Name         string
	MaxOccupancy int
	DefaultPrice money.Money
	Now          time.Time
}

func NewRoom(params CreateRoomParams) (*Room, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if params.MaxOccupancy < 1 {
		return nil, ErrMaxOccupancy
	}
	if params.DefaultPrice.Currency == "" {
		return nil, ErrDefaultPriceUnset
	}
	return &Room{
		ID:           RoomID(strings.TrimSpace(string(params.ID))),
		PropertyID:   params.PropertyID,
		Name:         strings.TrimSpace(params.Name),
		MaxOccupancy: params.MaxOccupancy,
		DefaultPrice: params.DefaultPrice,
		UpdatedAt:    params.Now.UTC(),
	}, nil
}

// Accommodates reports whether guests fit the room.
func (r *Room) Accommodates(guests int) bool {
	return guests >= 1 && guests <= r.MaxOccupancy
}
