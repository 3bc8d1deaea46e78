package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lodging/internal/app/uow"
	domaincalendar "lodging/internal/domain/calendar"
	domainreservation "lodging/internal/domain/reservation"
	domainrooms "lodging/internal/domain/rooms"
)

var ErrUnitOfWorkNotConfigured = errors.New("postgres: unit of work factory missing database")

// Factory begins gorm transactions. Writers use read committed and lock
// their room row first, so everything they read afterwards includes the
// previous writer's commit.
type Factory struct {
	DB *gorm.DB
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	txOpts := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	if opts.ReadOnly {
		txOpts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	tx := f.DB.WithContext(ctx).Begin(txOpts)
	if tx.Error != nil {
		return nil, tx.Error
	}
	u := &Unit{tx: tx, locked: make(map[domainrooms.RoomID]struct{})}
	if opts.Room != "" {
		if err := u.LockRoom(ctx, opts.Room); err != nil {
			_ = u.Rollback(ctx)
			return nil, err
		}
	}
	return u, nil
}

type Unit struct {
	tx     *gorm.DB
	locked map[domainrooms.RoomID]struct{}
	done   bool
}

func (u *Unit) Rooms() domainrooms.Directory {
	return RoomRepository{db: u.tx}
}

func (u *Unit) Calendar() domaincalendar.Store {
	return CalendarRepository{db: u.tx}
}

func (u *Unit) Reservations() domainreservation.Ledger {
	return ReservationRepository{db: u.tx}
}

// LockRoom takes the row lock of the room. Unknown rooms have no row; the
// handler reports them as not found before writing anything.
func (u *Unit) LockRoom(ctx context.Context, id domainrooms.RoomID) error {
	if _, ok := u.locked[id]; ok {
		return nil
	}
	var row roomModel
	err := u.tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", string(id)).
		Take(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	u.locked[id] = struct{}{}
	return nil
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	return u.tx.WithContext(ctx).Commit().Error
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	return u.tx.WithContext(ctx).Rollback().Error
}

// Tx exposes the transaction to stores that write alongside the unit.
func (u *Unit) Tx() *gorm.DB {
	return u.tx
}

// txFrom returns the transaction of the postgres unit bound to ctx, or db.
func txFrom(ctx context.Context, db *gorm.DB) *gorm.DB {
	if unit, ok := uow.FromContext(ctx); ok {
		if pg, ok := unit.(*Unit); ok {
			return pg.tx.WithContext(ctx)
		}
	}
	return db.WithContext(ctx)
}

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
