package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"lodging/internal/app/uow"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/money"
)

type roomFixture struct {
	ID           string       `json:"id"`
	PropertyID   string       `json:"property_id"`
	Name         string       `json:"name"`
	MaxOccupancy int          `json:"max_occupancy"`
	DefaultPrice priceFixture `json:"default_price"`
}

type priceFixture struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// loadRoomFixtures imports rooms from a JSON array into the room directory.
// Invalid entries are logged and skipped; a missing file is not an error.
func loadRoomFixtures(ctx context.Context, factory uow.UoWFactory, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("room fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("room fixtures file empty", "path", path)
		return nil
	}

	var fixtures []roomFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range fixtures {
		price, err := money.New(fx.DefaultPrice.Amount, fx.DefaultPrice.Currency)
		if err != nil {
			logger.Error("fixture invalid", "room_id", fx.ID, "error", err)
			continue
		}
		room, err := domainrooms.NewRoom(domainrooms.CreateRoomParams{
			ID:           domainrooms.RoomID(fx.ID),
			PropertyID:   domainrooms.PropertyID(fx.PropertyID),
			Name:         fx.Name,
			MaxOccupancy: fx.MaxOccupancy,
			DefaultPrice: price,
			Now:          now,
		})
		if err != nil {
			logger.Error("fixture invalid", "room_id", fx.ID, "error", err)
			continue
		}
		if err := saveRoom(ctx, factory, room); err != nil {
			logger.Error("cannot store fixture room", "room_id", fx.ID, "error", err)
			continue
		}
		logger.Info("room fixture imported", "room_id", room.ID)
	}
	return nil
}

func saveRoom(ctx context.Context, factory uow.UoWFactory, room *domainrooms.Room) error {
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	if err := unit.Rooms().Save(ctx, room); err != nil {
		_ = unit.Rollback(ctx)
		return err
	}
	return unit.Commit(ctx)
}
