package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	appoutbox "lodging/internal/app/outbox"
	"lodging/internal/app/uow"
	domaincalendar "lodging/internal/domain/calendar"
	domainreservation "lodging/internal/domain/reservation"
	domainrooms "lodging/internal/domain/rooms"
)

var (
	ErrUnitClosed = errors.New("memory: unit of work already finished")
	ErrReadOnly   = errors.New("memory: write in read-only unit of work")
)

// Store keeps rooms, calendar entries and reservations in process. Readers
// work on the snapshot current when their unit began; writers stage changes
// and publish a new snapshot on commit while holding their room lock.
type Store struct {
	mu     sync.RWMutex
	state  *state
	locks  *roomLocks
	outbox *Outbox
}

func NewStore() *Store {
	return &Store{state: emptyState(), locks: newRoomLocks(), outbox: NewOutbox()}
}

// Outbox returns the store's outbox. Records added inside a unit are only
// queued once that unit commits.
func (s *Store) Outbox() *Outbox {
	return s.outbox
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) publish(u *Unit) {
	s.mu.Lock()
	s.state = s.state.with(u)
	s.mu.Unlock()
}

// Factory begins units on a Store.
type Factory struct {
	Store *Store
}

// ErrFactoryMisconfigured indicates a factory without a store.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	u := &Unit{
		store:        f.Store,
		readOnly:     opts.ReadOnly,
		rooms:        make(map[domainrooms.RoomID]domainrooms.Room),
		entries:      make(map[domainrooms.RoomID]map[time.Time]domaincalendar.Entry),
		reservations: make(map[domainreservation.ID]*domainreservation.Reservation),
		releases:     make(map[domainrooms.RoomID]func()),
	}
	if opts.Room != "" {
		if err := u.lock(ctx, opts.Room); err != nil {
			return nil, err
		}
	}
	// The snapshot is taken after the lock so a writer sees every commit made
	// by the previous holder.
	u.base = f.Store.snapshot()
	return u, nil
}

// Unit is a uow.UnitOfWork over a Store snapshot plus staged writes.
type Unit struct {
	store    *Store
	base     *state
	readOnly bool
	done     bool

	rooms        map[domainrooms.RoomID]domainrooms.Room
	entries      map[domainrooms.RoomID]map[time.Time]domaincalendar.Entry
	reservations map[domainreservation.ID]*domainreservation.Reservation
	events       []appoutbox.EventRecord
	releases     map[domainrooms.RoomID]func()
}

func (u *Unit) Rooms() domainrooms.Directory {
	return roomDirectory{u: u}
}

func (u *Unit) Calendar() domaincalendar.Store {
	return calendarStore{u: u}
}

func (u *Unit) Reservations() domainreservation.Ledger {
	return ledger{u: u}
}

// LockRoom takes the room lock. A unit that has not written anything yet
// moves to the latest snapshot so reads after the lock are current.
func (u *Unit) LockRoom(ctx context.Context, id domainrooms.RoomID) error {
	if u.done {
		return ErrUnitClosed
	}
	if _, held := u.releases[id]; held {
		return nil
	}
	if err := u.lock(ctx, id); err != nil {
		return err
	}
	if !u.dirty() {
		u.base = u.store.snapshot()
	}
	return nil
}

func (u *Unit) lock(ctx context.Context, id domainrooms.RoomID) error {
	release, err := u.store.locks.acquire(ctx, id)
	if err != nil {
		return err
	}
	u.releases[id] = release
	return nil
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return ErrUnitClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if u.dirty() {
		u.store.publish(u)
	}
	if len(u.events) > 0 {
		u.store.outbox.enqueue(u.events)
	}
	u.finish()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.finish()
	return nil
}

func (u *Unit) finish() {
	u.done = true
	for id, release := range u.releases {
		release()
		delete(u.releases, id)
	}
}

func (u *Unit) dirty() bool {
	return len(u.rooms) > 0 || len(u.entries) > 0 || len(u.reservations) > 0
}

func (u *Unit) writable() error {
	if u.done {
		return ErrUnitClosed
	}
	if u.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (u *Unit) addEvent(rec appoutbox.EventRecord) error {
	if err := u.writable(); err != nil {
		return err
	}
	u.events = append(u.events, rec)
	return nil
}

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
