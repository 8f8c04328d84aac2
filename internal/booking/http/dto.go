package http

import (
	"time"

	"github.com/nekogravitycat/court-booking-engine/internal/booking"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/request"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/timewindow"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	CourtID  string `form:"court_id" binding:"omitempty,uuid"`
	RenterID string `form:"renter_id" binding:"omitempty,max=64"`
	Status   string `form:"status" binding:"omitempty,oneof=pending confirmed rejected cancelled completed"`
	DateFrom string `form:"date_from" binding:"omitempty,ymd"`
	DateTo   string `form:"date_to" binding:"omitempty,ymd"`
	// View selects which side of the booking a non-admin caller sees.
	View   string `form:"view" binding:"omitempty,oneof=renter owner"`
	SortBy string `form:"sort_by" binding:"omitempty,oneof=booking_date created_at status total_price"`
}

// Filter converts the query into a repository filter. Binding has already
// checked the date formats.
func (r *ListBookingsRequest) Filter() (booking.Filter, error) {
	r.Normalize()
	f := booking.Filter{
		CourtID:   r.CourtID,
		RenterID:  r.RenterID,
		Status:    r.Status,
		Page:      r.Page,
		PageSize:  r.PageSize,
		SortBy:    r.SortBy,
		SortOrder: r.SortOrder,
	}
	if r.DateFrom != "" {
		d, err := timewindow.ParseDate(r.DateFrom)
		if err != nil {
			return f, booking.ErrInvalidDate
		}
		f.DateFrom = &d
	}
	if r.DateTo != "" {
		d, err := timewindow.ParseDate(r.DateTo)
		if err != nil {
			return f, booking.ErrInvalidDate
		}
		f.DateTo = &d
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return f, booking.ErrInvalidDate
	}
	return f, nil
}

type CourtTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BookingResponse struct {
	ID                    string    `json:"id"`
	Court                 CourtTag  `json:"court"`
	RenterID              string    `json:"renter_id"`
	OwnerID               string    `json:"owner_id"`
	Date                  string    `json:"date"`
	StartTime             string    `json:"start_time"`
	EndTime               string    `json:"end_time"`
	DurationHours         float64   `json:"duration_hours"`
	TotalPrice            float64   `json:"total_price"`
	PaymentMethod         string    `json:"payment_method"`
	PaymentStatus         string    `json:"payment_status"`
	Status                string    `json:"status"`
	CancellationReason    *string   `json:"cancellation_reason"`
	IsReviewed            bool      `json:"is_reviewed"`
	EmailConfirmationSent bool      `json:"email_confirmation_sent"`
	WithinPendingWindow   bool      `json:"within_pending_window"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking, withinPendingWindow bool) BookingResponse {
	return BookingResponse{
		ID:                    b.ID,
		Court:                 CourtTag{ID: b.CourtID, Name: b.CourtName},
		RenterID:              b.RenterID,
		OwnerID:               b.OwnerID,
		Date:                  b.Date.String(),
		StartTime:             timewindow.FormatMinute(b.Slot.Start),
		EndTime:               timewindow.FormatMinute(b.Slot.End),
		DurationHours:         b.DurationHours,
		TotalPrice:            b.TotalPrice,
		PaymentMethod:         b.PaymentMethod,
		PaymentStatus:         string(b.PaymentStatus),
		Status:                string(b.Status),
		CancellationReason:    b.CancellationReason,
		IsReviewed:            b.IsReviewed,
		EmailConfirmationSent: b.EmailConfirmationSent,
		WithinPendingWindow:   withinPendingWindow,
		CreatedAt:             b.CreatedAt,
		UpdatedAt:             b.UpdatedAt,
	}
}

type CreateBookingRequest struct {
	CourtID       string  `json:"court_id" binding:"required,uuid"`
	Date          string  `json:"date" binding:"required,ymd"`
	StartTime     string  `json:"start_time" binding:"required,hhmm"`
	EndTime       string  `json:"end_time" binding:"required,hhmm"`
	TotalPrice    float64 `json:"total_price" binding:"omitempty,min=0"`
	PaymentMethod string  `json:"payment_method" binding:"omitempty,max=32"`
}

// ToCreateRequest builds the service request for renterID.
func (r *CreateBookingRequest) ToCreateRequest(renterID string) (booking.CreateRequest, error) {
	date, err := timewindow.ParseDate(r.Date)
	if err != nil {
		return booking.CreateRequest{}, booking.ErrInvalidDate
	}
	slot, err := timewindow.ParseInterval(r.StartTime, r.EndTime)
	if err != nil {
		return booking.CreateRequest{}, booking.ErrInvalidTimeRange
	}
	return booking.CreateRequest{
		CourtID:       r.CourtID,
		RenterID:      renterID,
		Date:          date,
		Slot:          slot,
		TotalPrice:    r.TotalPrice,
		PaymentMethod: r.PaymentMethod,
	}, nil
}

type TransitionRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject cancel complete"`
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

type UpdatePaymentRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required,oneof=unpaid partial paid"`
}

type SlotQuery struct {
	CourtID   string `form:"court_id" binding:"required,uuid"`
	Date      string `form:"date" binding:"required,ymd"`
	StartTime string `form:"start_time" binding:"required,hhmm"`
	EndTime   string `form:"end_time" binding:"required,hhmm"`
	ExcludeID string `form:"exclude_booking_id" binding:"omitempty,uuid"`
}

type AvailabilityQuery struct {
	CourtID string `form:"court_id" binding:"required,uuid"`
	Date    string `form:"date" binding:"required,ymd"`
}

type SlotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type AvailabilityResponse struct {
	CourtID string         `json:"court_id"`
	Date    string         `json:"date"`
	Slots   []SlotResponse `json:"slots"`
}

type SweepResponse struct {
	Reclaimed int `json:"reclaimed"`
	Completed int `json:"completed"`
}
