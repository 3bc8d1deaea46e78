package calendar

import "time"

type EntriesUpdated struct {
	RoomID   string                  `json:"room_id"`
	Statuses map[string]ManualStatus `json:"statuses"`
	Reason   string                  `json:"reason,omitempty"`
	At       time.Time               `json:"at"`
}

func (e EntriesUpdated) EventName() string     { return "calendar.entries_updated" }
func (e EntriesUpdated) AggregateID() string   { return e.RoomID }
func (e EntriesUpdated) OccurredAt() time.Time { return e.At }
