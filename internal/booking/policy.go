package booking

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nekogravitycat/court-booking-engine/internal/pkg/apperror"
)

type Role string

const (
	RoleRenter Role = "renter"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	// RoleSystem is used by background jobs such as the pending sweep.
	RoleSystem Role = "system"
)

// Actor is whoever requests a lifecycle change.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor performs scheduled reclamation and completion.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

const DefaultCancellationCutoff = 24 * time.Hour

// Authorize decides whether actor may apply action to b. Ownership is taken
// from the booking record, so a role claim alone never grants owner rights.
//
//	admin       any action
//	system      cancel, complete
//	court owner approve, reject, cancel, complete
//	renter      cancel
func Authorize(actor Actor, b *Booking, action Action) error {
	if actor.ID == "" {
		return ErrPermissionDenied
	}

	switch {
	case actor.Role == RoleAdmin:
		return nil
	case actor.Role == RoleSystem:
		if action == ActionCancel || action == ActionComplete {
			return nil
		}
	case actor.ID == b.OwnerID:
		return nil
	case actor.ID == b.RenterID:
		if action == ActionCancel {
			return nil
		}
	}
	return ErrPermissionDenied
}

// IsRenterInitiated reports whether a cancellation by actor is subject to the renter cutoff.
func IsRenterInitiated(actor Actor, b *Booking) bool {
	if actor.Role == RoleAdmin || actor.Role == RoleSystem {
		return false
	}
	return actor.ID == b.RenterID && actor.ID != b.OwnerID
}

// CheckCancellationWindow returns a TimingError when fewer than cutoff remain before the booking starts.
func CheckCancellationWindow(b *Booking, now time.Time, cutoff time.Duration, loc *time.Location) error {
	remaining := b.StartsAt(loc).Sub(now)
	if remaining >= cutoff {
		return nil
	}

	msg := fmt.Sprintf("too late to cancel: cancellations close %s before start, %s remaining",
		humanDuration(cutoff), humanDuration(remaining))
	if remaining <= 0 {
		msg = "too late to cancel: booking has already started"
	}
	return apperror.Wrap(ErrTooLateToCancel, http.StatusUnprocessableEntity, msg)
}

// CheckFinished rejects completion before the booking's end time.
func CheckFinished(b *Booking, now time.Time, loc *time.Location) error {
	if now.Before(b.EndsAt(loc)) {
		return ErrNotFinished
	}
	return nil
}

func humanDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
