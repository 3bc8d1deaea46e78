package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"lodging/internal/app/uow"
	domaincalendar "lodging/internal/domain/calendar"
	domainreservation "lodging/internal/domain/reservation"
	domainrooms "lodging/internal/domain/rooms"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
// Every unit reads from a snapshot; writers serialize on a room_locks
// document so two transactions writing the same room conflict.
type Factory struct {
	DB *mongo.Database
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	u := &Unit{
		db:           f.DB,
		session:      session,
		rooms:        NewRoomRepository(f.DB),
		calendar:     NewCalendarRepository(f.DB),
		reservations: NewReservationRepository(f.DB),
		locked:       make(map[domainrooms.RoomID]struct{}),
	}
	if opts.Room != "" {
		if err := u.LockRoom(ctx, opts.Room); err != nil {
			_ = u.Rollback(ctx)
			return nil, err
		}
	}
	return u, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

	rooms        *RoomRepository
	calendar     *CalendarRepository
	reservations *ReservationRepository
	locked       map[domainrooms.RoomID]struct{}
}

func (u *Unit) Rooms() domainrooms.Directory {
	return u.rooms
}

func (u *Unit) Calendar() domaincalendar.Store {
	return u.calendar
}

func (u *Unit) Reservations() domainreservation.Ledger {
	return u.reservations
}

// LockRoom bumps the room's lock document inside the transaction. A second
// transaction touching the same document fails with a write conflict.
func (u *Unit) LockRoom(ctx context.Context, id domainrooms.RoomID) error {
	if _, ok := u.locked[id]; ok {
		return nil
	}
	sctx := u.InjectContext(ctx)
	_, err := u.db.Collection(locksCollection).UpdateOne(sctx,
		bson.M{"_id": string(id)},
		bson.M{"$inc": bson.M{"seq": 1}, "$set": bson.M{"locked_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return mapWriteError(err)
	}
	u.locked[id] = struct{}{}
	return nil
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return mapWriteError(u.session.CommitTransaction(ctx))
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
