package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/court-booking-engine/internal/auth"
	"github.com/nekogravitycat/court-booking-engine/internal/booking"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/request"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/response"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/timewindow"
)

type Handler struct {
	service        booking.Service
	cleanupTimeout time.Duration
	autoComplete   bool
}

// NewHandler builds the booking handler. autoComplete mirrors AUTO_COMPLETE:
// when false, manual sweeps only reclaim stale requests, like the monitor.
func NewHandler(service booking.Service, cleanupTimeout time.Duration, autoComplete bool) *Handler {
	return &Handler{
		service:        service,
		cleanupTimeout: cleanupTimeout,
		autoComplete:   autoComplete,
	}
}

// actorFrom maps the authenticated caller onto a booking actor.
func actorFrom(c *gin.Context) booking.Actor {
	return booking.Actor{
		ID:   auth.GetUserID(c),
		Role: booking.Role(auth.GetRole(c)),
	}
}

func (h *Handler) respond(c *gin.Context, status int, b *booking.Booking) {
	c.JSON(status, NewBookingResponse(b, h.service.IsWithinPendingWindow(b)))
}

func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	filter, err := req.Filter()
	if err != nil {
		response.Error(c, err)
		return
	}

	// Non-admins only ever see their own bookings, as renter or as court owner.
	if !auth.IsAdmin(c) {
		userID := auth.GetUserID(c)
		if req.View == "owner" {
			filter.OwnerID = userID
		} else {
			filter.RenterID = userID
		}
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b, h.service.IsWithinPendingWindow(b))
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, filter.Page, filter.PageSize, total))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	req, err := body.ToCreateRequest(auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	b, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respond(c, http.StatusCreated, b)
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Access Check: renter OR court owner OR admin
	userID := auth.GetUserID(c)
	if userID != b.RenterID && userID != b.OwnerID && !auth.IsAdmin(c) {
		response.Error(c, booking.ErrPermissionDenied)
		return
	}

	h.respond(c, http.StatusOK, b)
}

func (h *Handler) Transition(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}
	var body TransitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	action, err := booking.ParseAction(body.Action)
	if err != nil {
		response.Error(c, err)
		return
	}

	b, err := h.service.Transition(c.Request.Context(), uri.ID, actorFrom(c), action, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respond(c, http.StatusOK, b)
}

func (h *Handler) UpdatePayment(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}
	var body UpdatePaymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.service.UpdatePaymentStatus(c.Request.Context(), uri.ID, actorFrom(c), booking.PaymentStatus(body.PaymentStatus))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respond(c, http.StatusOK, b)
}

func (h *Handler) Reviewable(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}

	ok, err := h.service.CanBeReviewed(c.Request.Context(), uri.ID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking_id": uri.ID, "reviewable": ok})
}

func (h *Handler) CheckSlot(c *gin.Context) {
	var q SlotQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	date, err := timewindow.ParseDate(q.Date)
	if err != nil {
		response.Error(c, booking.ErrInvalidDate)
		return
	}
	slot, err := timewindow.ParseInterval(q.StartTime, q.EndTime)
	if err != nil {
		response.Error(c, booking.ErrInvalidTimeRange)
		return
	}

	free, err := h.service.IsSlotFree(c.Request.Context(), q.CourtID, date, slot, q.ExcludeID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"free": free})
}

func (h *Handler) Availability(c *gin.Context) {
	var q AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	date, err := timewindow.ParseDate(q.Date)
	if err != nil {
		response.Error(c, booking.ErrInvalidDate)
		return
	}

	free, err := h.service.Availability(c.Request.Context(), q.CourtID, date)
	if err != nil {
		response.Error(c, err)
		return
	}

	slots := make([]SlotResponse, len(free))
	for i, iv := range free {
		slots[i] = SlotResponse{
			StartTime: timewindow.FormatMinute(iv.Start),
			EndTime:   timewindow.FormatMinute(iv.End),
		}
	}

	c.JSON(http.StatusOK, AvailabilityResponse{CourtID: q.CourtID, Date: date.String(), Slots: slots})
}

// Sweep runs one maintenance pass on demand, outside the monitor's schedule.
func (h *Handler) Sweep(c *gin.Context) {
	ctx := c.Request.Context()

	reclaimed, err := h.service.SweepStalePending(ctx, h.cleanupTimeout)
	if err != nil {
		response.Error(c, err)
		return
	}
	var completed int
	if h.autoComplete {
		if completed, err = h.service.CompleteElapsed(ctx); err != nil {
			response.Error(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, SweepResponse{Reclaimed: reclaimed, Completed: completed})
}
