package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Routing keys for booking lifecycle events.
const (
	RKBookingCreated       = "booking.created"
	RKBookingConfirmed     = "booking.confirmed"
	RKBookingRejected      = "booking.rejected"
	RKBookingCancelled     = "booking.cancelled"
	RKBookingAutoCancelled = "booking.auto_cancelled"
	RKBookingCompleted     = "booking.completed"
)

// Event carries enough of a booking for a downstream notifier to build a message.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	CourtID    string    `json:"court_id"`
	RenterID   string    `json:"renter_id"`
	OwnerID    string    `json:"owner_id"`
	Recipient  string    `json:"recipient"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent stamps a fresh id and timestamp on an event of the given type.
func NewEvent(eventType string, now time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: now,
	}
}

// Notifier delivers booking events to an external collaborator (email, push, broker).
// Callers treat delivery as fire-and-forget: an error is logged, never propagated.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}
