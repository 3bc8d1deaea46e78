package availability

import (
	"sort"
	"time"
)

func sortDays(days []time.Time) []time.Time {
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
