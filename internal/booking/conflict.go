package booking

import (
	"context"

	"github.com/nekogravitycat/court-booking-engine/internal/pkg/timewindow"
)

// SlotReader loads the active (pending or confirmed) bookings of one court on one day.
type SlotReader interface {
	ListActiveForSlot(ctx context.Context, courtID string, date timewindow.Date) ([]*Booking, error)
}

// ConflictChecker answers whether a slot is free. The answer is advisory:
// callers that insert afterwards must hold the slot lock for the court and day.
type ConflictChecker struct {
	reader SlotReader
}

func NewConflictChecker(reader SlotReader) *ConflictChecker {
	return &ConflictChecker{reader: reader}
}

// IsSlotFree reports whether [slot.Start, slot.End) on date overlaps no active booking of the court.
// excludeBookingID skips one booking, used when re-validating an existing booking.
func (c *ConflictChecker) IsSlotFree(ctx context.Context, courtID string, date timewindow.Date, slot timewindow.Interval, excludeBookingID string) (bool, error) {
	candidates, err := c.reader.ListActiveForSlot(ctx, courtID, date)
	if err != nil {
		return false, err
	}
	return FindConflict(candidates, slot, excludeBookingID) == nil, nil
}

// FindConflict returns the first active candidate overlapping slot, or nil.
// Candidates that are not active are skipped even if the reader returned them.
func FindConflict(candidates []*Booking, slot timewindow.Interval, excludeBookingID string) *Booking {
	for _, b := range candidates {
		if excludeBookingID != "" && b.ID == excludeBookingID {
			continue
		}
		if !b.Status.IsActive() {
			continue
		}
		if slot.Overlaps(b.Slot) {
			return b
		}
	}
	return nil
}
