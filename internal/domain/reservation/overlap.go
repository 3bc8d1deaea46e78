package reservation

import (
	"sort"

	"lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
)

// FilterOverlapping keeps confirmed reservations of roomID touching the window,
// ordered by check-in. Storage adapters that cannot push the predicate down
// share it through this helper.
func FilterOverlapping(all []*Reservation, roomID rooms.RoomID, window daterange.Window) []*Reservation {
	out := make([]*Reservation, 0)
	for _, r := range all {
		if r.RoomID != roomID || !r.Active() {
			continue
		}
		if window.Touches(r.Range) {
			out = append(out, r)
		}
	}
	SortByCheckIn(out)
	return out
}

func SortByCheckIn(list []*Reservation) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Range.CheckIn.Before(list[j].Range.CheckIn)
	})
}

// SortNewestFirst orders by creation time, most recent first.
func SortNewestFirst(list []*Reservation) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
