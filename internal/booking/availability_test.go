package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nekogravitycat/court-booking-engine/internal/pkg/timewindow"
)

func at(h, m int) int { return h*60 + m }

func TestCalculateAvailability(t *testing.T) {
	hours := timewindow.Interval{Start: at(9, 0), End: at(18, 0)}

	tests := []struct {
		name     string
		bookings []*Booking
		want     []timewindow.Interval
	}{
		{
			name:     "No bookings, full day available",
			bookings: []*Booking{},
			want:     []timewindow.Interval{hours},
		},
		{
			name: "One booking in the middle",
			bookings: []*Booking{
				{Slot: timewindow.Interval{Start: at(12, 0), End: at(13, 0)}, Status: StatusConfirmed},
			},
			want: []timewindow.Interval{
				{Start: at(9, 0), End: at(12, 0)},
				{Start: at(13, 0), End: at(18, 0)},
			},
		},
		{
			name: "Pending booking blocks its slot",
			bookings: []*Booking{
				{Slot: timewindow.Interval{Start: at(10, 0), End: at(11, 0)}, Status: StatusPending},
			},
			want: []timewindow.Interval{
				{Start: at(9, 0), End: at(10, 0)},
				{Start: at(11, 0), End: at(18, 0)},
			},
		},
		{
			name: "Cancelled and rejected bookings are ignored",
			bookings: []*Booking{
				{Slot: timewindow.Interval{Start: at(10, 0), End: at(11, 0)}, Status: StatusCancelled},
				{Slot: timewindow.Interval{Start: at(14, 0), End: at(15, 0)}, Status: StatusRejected},
			},
			want: []timewindow.Interval{hours},
		},
		{
			name: "Booking covers entire day",
			bookings: []*Booking{
				{Slot: hours, Status: StatusConfirmed},
			},
			want: nil,
		},
		{
			name: "Unsorted bookings",
			bookings: []*Booking{
				{Slot: timewindow.Interval{Start: at(14, 0), End: at(16, 0)}, Status: StatusConfirmed},
				{Slot: timewindow.Interval{Start: at(10, 0), End: at(12, 0)}, Status: StatusConfirmed},
			},
			want: []timewindow.Interval{
				{Start: at(9, 0), End: at(10, 0)},
				{Start: at(12, 0), End: at(14, 0)},
				{Start: at(16, 0), End: at(18, 0)},
			},
		},
		{
			name: "Overlapping and adjacent bookings merge",
			bookings: []*Booking{
				{Slot: timewindow.Interval{Start: at(10, 0), End: at(12, 0)}, Status: StatusConfirmed},
				{Slot: timewindow.Interval{Start: at(11, 0), End: at(13, 0)}, Status: StatusPending},
				{Slot: timewindow.Interval{Start: at(13, 0), End: at(14, 0)}, Status: StatusConfirmed},
			},
			want: []timewindow.Interval{
				{Start: at(9, 0), End: at(10, 0)},
				{Start: at(14, 0), End: at(18, 0)},
			},
		},
		{
			name: "Bookings at the edges",
			bookings: []*Booking{
				{Slot: timewindow.Interval{Start: at(9, 0), End: at(10, 0)}, Status: StatusConfirmed},
				{Slot: timewindow.Interval{Start: at(17, 0), End: at(18, 0)}, Status: StatusConfirmed},
			},
			want: []timewindow.Interval{
				{Start: at(10, 0), End: at(17, 0)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateAvailability(hours, tt.bookings))
		})
	}
}
