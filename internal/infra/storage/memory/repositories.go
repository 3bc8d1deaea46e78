package memory

import (
	"context"
	"sort"
	"time"

	domaincalendar "lodging/internal/domain/calendar"
	domainreservation "lodging/internal/domain/reservation"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/errs"
)

type roomDirectory struct {
	u *Unit
}

func (d roomDirectory) ByID(ctx context.Context, id domainrooms.RoomID) (*domainrooms.Room, error) {
	if room, ok := d.u.rooms[id]; ok {
		return &room, nil
	}
	room, ok := d.u.base.rooms[id]
	if !ok {
		return nil, domainrooms.ErrRoomNotFound
	}
	return &room, nil
}

func (d roomDirectory) Save(ctx context.Context, room *domainrooms.Room) error {
	if err := d.u.writable(); err != nil {
		return err
	}
	d.u.rooms[room.ID] = *room
	return nil
}

type calendarStore struct {
	u *Unit
}

func (s calendarStore) Entries(ctx context.Context, roomID domainrooms.RoomID, window daterange.Window) ([]domaincalendar.Entry, error) {
	merged := make(map[time.Time]domaincalendar.Entry)
	for d, e := range s.u.base.entries[roomID] {
		if window.Contains(d) {
			merged[d] = e
		}
	}
	for d, e := range s.u.entries[roomID] {
		if window.Contains(d) {
			merged[d] = e
		}
	}
	out := make([]domaincalendar.Entry, 0, len(merged))
	for _, e := range merged {
		out = append(out, copyEntry(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s calendarStore) Upsert(ctx context.Context, entries []domaincalendar.Entry) error {
	if err := s.u.writable(); err != nil {
		return err
	}
	for _, e := range entries {
		days, ok := s.u.entries[e.RoomID]
		if !ok {
			days = make(map[time.Time]domaincalendar.Entry)
			s.u.entries[e.RoomID] = days
		}
		e.Date = daterange.Day(e.Date)
		days[e.Date] = copyEntry(e)
	}
	return nil
}

func copyEntry(e domaincalendar.Entry) domaincalendar.Entry {
	if e.Price != nil {
		price := *e.Price
		e.Price = &price
	}
	return e
}

type ledger struct {
	u *Unit
}

func (l ledger) current(id domainreservation.ID) (*domainreservation.Reservation, bool) {
	if r, ok := l.u.reservations[id]; ok {
		return r, true
	}
	r, ok := l.u.base.reservations[id]
	return r, ok
}

func (l ledger) ByID(ctx context.Context, id domainreservation.ID) (*domainreservation.Reservation, error) {
	r, ok := l.current(id)
	if !ok {
		return nil, domainreservation.ErrReservationNotFound
	}
	return r.Clone(), nil
}

func (l ledger) ListByRoom(ctx context.Context, roomID domainrooms.RoomID) ([]*domainreservation.Reservation, error) {
	seen := make(map[domainreservation.ID]struct{})
	out := make([]*domainreservation.Reservation, 0)
	for _, id := range l.u.base.byRoom[roomID] {
		r, _ := l.current(id)
		seen[id] = struct{}{}
		out = append(out, r.Clone())
	}
	for id, r := range l.u.reservations {
		if _, ok := seen[id]; ok || r.RoomID != roomID {
			continue
		}
		out = append(out, r.Clone())
	}
	domainreservation.SortByCheckIn(out)
	return out, nil
}

func (l ledger) Overlapping(ctx context.Context, roomID domainrooms.RoomID, window daterange.Window) ([]*domainreservation.Reservation, error) {
	all, err := l.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return domainreservation.FilterOverlapping(all, roomID, window), nil
}

func (l ledger) Insert(ctx context.Context, r *domainreservation.Reservation) error {
	if err := l.u.writable(); err != nil {
		return err
	}
	if _, exists := l.current(r.ID); exists {
		return domainreservation.ErrDuplicateReservation
	}
	r.Version = 1
	l.u.reservations[r.ID] = r.Clone()
	return nil
}

// Save stores a reservation read earlier in this unit. A version mismatch
// means someone else saved it first.
func (l ledger) Save(ctx context.Context, r *domainreservation.Reservation) error {
	if err := l.u.writable(); err != nil {
		return err
	}
	stored, ok := l.current(r.ID)
	if !ok {
		return domainreservation.ErrReservationNotFound
	}
	if stored.Version != r.Version {
		return errs.Conflict(errs.CodeConcurrentWrite, "reservation was modified concurrently", nil, nil)
	}
	r.Version++
	l.u.reservations[r.ID] = r.Clone()
	return nil
}
