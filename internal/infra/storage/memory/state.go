package memory

import (
	"time"

	domaincalendar "lodging/internal/domain/calendar"
	domainreservation "lodging/internal/domain/reservation"
	domainrooms "lodging/internal/domain/rooms"
)

// state is an immutable snapshot of the store. Commits build a new state that
// shares every map the commit did not touch.
type state struct {
	rooms        map[domainrooms.RoomID]domainrooms.Room
	entries      map[domainrooms.RoomID]map[time.Time]domaincalendar.Entry
	reservations map[domainreservation.ID]*domainreservation.Reservation
	byRoom       map[domainrooms.RoomID][]domainreservation.ID
}

func emptyState() *state {
	return &state{
		rooms:        make(map[domainrooms.RoomID]domainrooms.Room),
		entries:      make(map[domainrooms.RoomID]map[time.Time]domaincalendar.Entry),
		reservations: make(map[domainreservation.ID]*domainreservation.Reservation),
		byRoom:       make(map[domainrooms.RoomID][]domainreservation.ID),
	}
}

// with returns a new state carrying the staged writes of u.
func (s *state) with(u *Unit) *state {
	next := *s
	if len(u.rooms) > 0 {
		next.rooms = make(map[domainrooms.RoomID]domainrooms.Room, len(s.rooms)+len(u.rooms))
		for id, room := range s.rooms {
			next.rooms[id] = room
		}
		for id, room := range u.rooms {
			next.rooms[id] = room
		}
	}
	if len(u.entries) > 0 {
		next.entries = make(map[domainrooms.RoomID]map[time.Time]domaincalendar.Entry, len(s.entries)+len(u.entries))
		for id, days := range s.entries {
			next.entries[id] = days
		}
		for id, staged := range u.entries {
			days := make(map[time.Time]domaincalendar.Entry, len(s.entries[id])+len(staged))
			for d, e := range s.entries[id] {
				days[d] = e
			}
			for d, e := range staged {
				days[d] = e
			}
			next.entries[id] = days
		}
	}
	if len(u.reservations) > 0 {
		next.reservations = make(map[domainreservation.ID]*domainreservation.Reservation, len(s.reservations)+len(u.reservations))
		for id, r := range s.reservations {
			next.reservations[id] = r
		}
		next.byRoom = make(map[domainrooms.RoomID][]domainreservation.ID, len(s.byRoom)+1)
		for id, ids := range s.byRoom {
			next.byRoom[id] = ids
		}
		for id, r := range u.reservations {
			if _, existed := s.reservations[id]; !existed {
				ids := next.byRoom[r.RoomID]
				next.byRoom[r.RoomID] = append(append(make([]domainreservation.ID, 0, len(ids)+1), ids...), id)
			}
			next.reservations[id] = r
		}
	}
	return &next
}
