package booking

import (
	"sort"

	"github.com/nekogravitycat/court-booking-engine/internal/pkg/timewindow"
)

// CalculateAvailability returns the free gaps of hours after removing every
// active booking. Bookings may arrive unsorted and may overlap each other.
// A fully booked day yields nil.
func CalculateAvailability(hours timewindow.Interval, bookings []*Booking) []timewindow.Interval {
	busy := make([]timewindow.Interval, 0, len(bookings))
	for _, b := range bookings {
		if !b.Status.IsActive() {
			continue
		}
		if !hours.Overlaps(b.Slot) {
			continue
		}
		busy = append(busy, b.Slot)
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start < busy[j].Start })

	var free []timewindow.Interval
	cursor := hours.Start
	for _, iv := range busy {
		if iv.Start > cursor {
			free = append(free, timewindow.Interval{Start: cursor, End: iv.Start})
		}
		if iv.End > cursor {
			cursor = iv.End
		}
	}
	if cursor < hours.End {
		free = append(free, timewindow.Interval{Start: cursor, End: hours.End})
	}
	return free
}
