package calendar

import (
	"sort"
	"time"

	"lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
	"lodging/internal/domain/shared/events"
)

// Batch is a validated bulk edit, applied all-or-nothing.
type Batch struct {
	RoomID  rooms.RoomID
	Entries []Entry
	Reason  string
	events.EventRecorder
}

// NewBatch checks the shape of a bulk edit. It does not look at reservations;
// that check needs the ledger and happens under the room lock.
func NewBatch(room *rooms.Room, updates []Update, reason string, maxDates int, now time.Time) (*Batch, error) {
	if len(updates) == 0 {
		return nil, ErrEmptyBatch
	}
	if maxDates > 0 && len(updates) > maxDates {
		return nil, ErrBatchTooLarge
	}
	seen := make(map[time.Time]struct{}, len(updates))
	entries := make([]Entry, 0, len(updates))
	for _, u := range updates {
		entry, err := NewEntry(room, u, now)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[entry.Date]; dup {
			return nil, ErrDuplicateDate
		}
		seen[entry.Date] = struct{}{}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
	return &Batch{RoomID: room.ID, Entries: entries, Reason: reason}, nil
}

func (b *Batch) Dates() []time.Time {
	out := make([]time.Time, 0, len(b.Entries))
	for _, e := range b.Entries {
		out = append(out, e.Date)
	}
	return out
}

// Windows covers the edited dates and nothing else, one window per run of
// consecutive dates.
func (b *Batch) Windows() []daterange.Window {
	return daterange.Runs(b.Dates())
}

// Applied records the event emitted once the batch has been written.
func (b *Batch) Applied(now time.Time) {
	statuses := make(map[string]ManualStatus, len(b.Entries))
	for _, e := range b.Entries {
		statuses[daterange.FormatDay(e.Date)] = e.Status
	}
	b.Record(EntriesUpdated{
		RoomID:   string(b.RoomID),
		Statuses: statuses,
		Reason:   b.Reason,
		At:       now.UTC(),
	})
}
