package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/court-booking-engine/internal/pkg/apperror"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/timewindow"
)

var (
	ErrNotFound              = apperror.New(http.StatusNotFound, "booking not found")
	ErrCourtNotFound         = apperror.New(http.StatusNotFound, "court not found")
	ErrCourtInactive         = apperror.New(http.StatusConflict, "court is not accepting bookings")
	ErrTimeConflict          = apperror.New(http.StatusConflict, "time slot already booked")
	ErrInvalidTimeRange      = apperror.New(http.StatusBadRequest, "start time must be before end time")
	ErrInvalidDate           = apperror.New(http.StatusBadRequest, "invalid booking date")
	ErrOutsideOperatingHours = apperror.New(http.StatusBadRequest, "requested time is outside the court's operating hours")
	ErrStartTimePast         = apperror.New(http.StatusBadRequest, "cannot create booking in the past")
	ErrInvalidInput          = apperror.New(http.StatusBadRequest, "invalid input parameters")
	ErrInvalidStatus         = apperror.New(http.StatusBadRequest, "invalid booking status")
	ErrInvalidAction         = apperror.New(http.StatusBadRequest, "invalid booking action")
	ErrInvalidPaymentStatus  = apperror.New(http.StatusBadRequest, "invalid payment status")
	ErrPermissionDenied      = apperror.New(http.StatusForbidden, "permission denied")
	ErrIllegalTransition     = apperror.New(http.StatusConflict, "illegal booking status transition")
	ErrStatusChanged         = apperror.New(http.StatusConflict, "booking status was changed by another request")
	ErrTooLateToCancel       = apperror.New(http.StatusUnprocessableEntity, "too late to cancel")
	ErrNotFinished           = apperror.New(http.StatusConflict, "booking has not ended yet")
	ErrAlreadyReviewed       = apperror.New(http.StatusConflict, "booking has already been reviewed")
	ErrPaymentLocked         = apperror.New(http.StatusConflict, "payment status cannot change on a closed booking")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentUnpaid, PaymentPartial, PaymentPaid:
		return true
	}
	return false
}

const DefaultPaymentMethod = "cash"

// Booking is a reservation of one court for a half-open interval on one calendar day.
type Booking struct {
	ID                    string
	CourtID               string
	CourtName             string
	RenterID              string
	OwnerID               string // denormalized from the court
	Date                  timewindow.Date
	Slot                  timewindow.Interval
	DurationHours         float64
	TotalPrice            float64
	PaymentMethod         string
	PaymentStatus         PaymentStatus
	Status                Status
	CancellationReason    *string
	IsReviewed            bool
	EmailConfirmationSent bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// StartsAt returns the booking's start instant in the court's time zone.
func (b *Booking) StartsAt(loc *time.Location) time.Time {
	return b.Date.At(b.Slot.Start, loc)
}

// EndsAt returns the booking's end instant in the court's time zone.
func (b *Booking) EndsAt(loc *time.Location) time.Time {
	return b.Date.At(b.Slot.End, loc)
}

type Filter struct {
	CourtID   string
	RenterID  string
	OwnerID   string
	Status    string
	DateFrom  *timewindow.Date
	DateTo    *timewindow.Date
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
