package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domaincalendar "lodging/internal/domain/calendar"
	domainreservation "lodging/internal/domain/reservation"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/errs"
)

type RoomRepository struct {
	db *gorm.DB
}

func (r RoomRepository) ByID(ctx context.Context, id domainrooms.RoomID) (*domainrooms.Room, error) {
	var m roomModel
	if err := r.db.WithContext(ctx).Where("id = ?", string(id)).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainrooms.ErrRoomNotFound
		}
		return nil, err
	}
	return m.toRoom(), nil
}

func (r RoomRepository) Save(ctx context.Context, room *domainrooms.Room) error {
	m := newRoomModel(room)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error
}

type CalendarRepository struct {
	db *gorm.DB
}

func (r CalendarRepository) Entries(ctx context.Context, roomID domainrooms.RoomID, window daterange.Window) ([]domaincalendar.Entry, error) {
	var rows []entryModel
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND date BETWEEN ? AND ?", string(roomID), window.From, window.To).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domaincalendar.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntry())
	}
	return out, nil
}

// Upsert writes the batch in one INSERT ... ON CONFLICT (room_id, date).
func (r CalendarRepository) Upsert(ctx context.Context, entries []domaincalendar.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]entryModel, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, newEntryModel(e))
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "price_amount", "currency", "updated_at"}),
	}).Create(&rows).Error
}

type ReservationRepository struct {
	db *gorm.DB
}

func (r ReservationRepository) ByID(ctx context.Context, id domainreservation.ID) (*domainreservation.Reservation, error) {
	var m reservationModel
	if err := r.db.WithContext(ctx).Where("id = ?", string(id)).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainreservation.ErrReservationNotFound
		}
		return nil, err
	}
	return m.toAggregate(), nil
}

func (r ReservationRepository) Overlapping(ctx context.Context, roomID domainrooms.RoomID, window daterange.Window) ([]*domainreservation.Reservation, error) {
	var rows []reservationModel
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND status = ? AND check_in_date <= ? AND check_out_date >= ?",
			string(roomID), string(domainreservation.StatusConfirmed), window.To, window.From).
		Order("check_in_date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return domainreservation.FilterOverlapping(toAggregates(rows), roomID, window), nil
}

func (r ReservationRepository) ListByRoom(ctx context.Context, roomID domainrooms.RoomID) ([]*domainreservation.Reservation, error) {
	var rows []reservationModel
	if err := r.db.WithContext(ctx).Where("room_id = ?", string(roomID)).Order("check_in_date").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toAggregates(rows), nil
}

func (r ReservationRepository) Insert(ctx context.Context, res *domainreservation.Reservation) error {
	m := newReservationModel(res)
	m.Version = 1
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainreservation.ErrDuplicateReservation
		}
		return err
	}
	res.Version = m.Version
	return nil
}

// Save updates status and timestamps when the stored version matches.
func (r ReservationRepository) Save(ctx context.Context, res *domainreservation.Reservation) error {
	m := newReservationModel(res)
	out := r.db.WithContext(ctx).Model(&reservationModel{}).
		Where("id = ? AND version = ?", m.ID, res.Version).
		Updates(map[string]any{
			"status":      m.Status,
			"guest_count": m.GuestCount,
			"updated_at":  m.UpdatedAt,
			"version":     res.Version + 1,
		})
	if out.Error != nil {
		return out.Error
	}
	if out.RowsAffected == 0 {
		return errs.Conflict(errs.CodeConcurrentWrite, "reservation was modified concurrently", nil, nil)
	}
	res.Version++
	return nil
}

func toAggregates(rows []reservationModel) []*domainreservation.Reservation {
	out := make([]*domainreservation.Reservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toAggregate())
	}
	return out
}

var (
	_ domainrooms.Directory    = RoomRepository{}
	_ domaincalendar.Store     = CalendarRepository{}
	_ domainreservation.Ledger = ReservationRepository{}
)
