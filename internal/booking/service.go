package booking

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/court-booking-engine/internal/court"
	"github.com/nekogravitycat/court-booking-engine/internal/notify"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/keylock"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/timewindow"
)

type CreateRequest struct {
	CourtID       string
	RenterID      string
	Date          timewindow.Date
	Slot          timewindow.Interval
	TotalPrice    float64 // zero means derive from the court's hourly price
	PaymentMethod string
}

// CourtCatalog is the court lookup the engine depends on.
type CourtCatalog interface {
	GetByID(ctx context.Context, id string) (*court.Court, error)
}

// ReviewIndex tells whether a review already exists for a booking.
type ReviewIndex interface {
	ExistsForBooking(ctx context.Context, bookingID string) (bool, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	// Transition applies action to the booking on behalf of actor.
	// reason is recorded for reject and cancel and ignored otherwise.
	Transition(ctx context.Context, id string, actor Actor, action Action, reason string) (*Booking, error)
	UpdatePaymentStatus(ctx context.Context, id string, actor Actor, status PaymentStatus) (*Booking, error)

	IsSlotFree(ctx context.Context, courtID string, date timewindow.Date, slot timewindow.Interval, excludeBookingID string) (bool, error)
	Availability(ctx context.Context, courtID string, date timewindow.Date) ([]timewindow.Interval, error)
	IsWithinPendingWindow(b *Booking) bool

	CanBeReviewed(ctx context.Context, id string, userID string) (bool, error)

	SweepStalePending(ctx context.Context, timeout time.Duration) (int, error)
	CompleteElapsed(ctx context.Context) (int, error)
}

// Options tunes time-based rules. Zero values fall back to the defaults.
type Options struct {
	Location           *time.Location
	PendingWindow      time.Duration
	CancellationCutoff time.Duration
	Clock              timewindow.Clock
}

type service struct {
	repo     Repository
	courts   CourtCatalog
	reviews  ReviewIndex
	notifier notify.Notifier
	checker  *ConflictChecker
	slots    *keylock.Locker

	loc           *time.Location
	pendingWindow time.Duration
	cutoff        time.Duration
	clock         timewindow.Clock
}

func NewService(repo Repository, courts CourtCatalog, reviews ReviewIndex, notifier notify.Notifier, opts Options) Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.PendingWindow <= 0 {
		opts.PendingWindow = DefaultPendingWindow
	}
	if opts.CancellationCutoff <= 0 {
		opts.CancellationCutoff = DefaultCancellationCutoff
	}
	if opts.Clock == nil {
		opts.Clock = timewindow.SystemClock{}
	}

	return &service{
		repo:          repo,
		courts:        courts,
		reviews:       reviews,
		notifier:      notifier,
		checker:       NewConflictChecker(repo),
		slots:         keylock.New(),
		loc:           opts.Location,
		pendingWindow: opts.PendingWindow,
		cutoff:        opts.CancellationCutoff,
		clock:         opts.Clock,
	}
}

// slotKey identifies the serialization unit for check-then-insert.
func slotKey(courtID string, date timewindow.Date) string {
	return courtID + "|" + date.String()
}

func (s *service) getCourt(ctx context.Context, id string) (*court.Court, error) {
	c, err := s.courts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, court.ErrNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	// 1. Validate input
	if req.CourtID == "" || req.RenterID == "" || req.TotalPrice < 0 {
		return nil, ErrInvalidInput
	}
	if req.Date.IsZero() {
		return nil, ErrInvalidDate
	}
	slot, err := timewindow.NewInterval(req.Slot.Start, req.Slot.End)
	if err != nil {
		return nil, ErrInvalidTimeRange
	}

	// 2. Court exists and is active
	c, err := s.getCourt(ctx, req.CourtID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, ErrCourtInactive
	}

	// 3. Interval within the day's operating hours
	hours, open := c.HoursOn(req.Date.Weekday())
	if !open || !hours.Contains(slot) {
		return nil, ErrOutsideOperatingHours
	}

	// 4. Start cannot be in the past
	if req.Date.At(slot.Start, s.loc).Before(s.clock.Now()) {
		return nil, ErrStartTimePast
	}

	price := req.TotalPrice
	if price == 0 {
		price = math.Round(c.HourlyPrice*slot.Hours()*100) / 100
	}
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		method = DefaultPaymentMethod
	}

	b := &Booking{
		CourtID:       c.ID,
		CourtName:     c.Name,
		RenterID:      req.RenterID,
		OwnerID:       c.OwnerID,
		Date:          req.Date,
		Slot:          slot,
		DurationHours: slot.Hours(),
		TotalPrice:    price,
		PaymentMethod: method,
		PaymentStatus: PaymentUnpaid,
		Status:        StatusPending,
	}

	// 5. Check and insert under the slot lock
	unlock := s.slots.Lock(slotKey(b.CourtID, b.Date))
	defer unlock()

	free, err := s.checker.IsSlotFree(ctx, b.CourtID, b.Date, b.Slot, "")
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, ErrTimeConflict
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	unlock()

	s.notify(ctx, notify.RKBookingCreated, b, b.OwnerID)
	return b, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Transition(ctx context.Context, id string, actor Actor, action Action, reason string) (*Booking, error) {
	if !action.IsValid() {
		return nil, ErrInvalidAction
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, b, actor, action, reason)
}

// apply is the single transition primitive used by actors and by the sweeps.
func (s *service) apply(ctx context.Context, b *Booking, actor Actor, action Action, reason string) (*Booking, error) {
	// Authorization comes before any state inspection.
	if err := Authorize(actor, b, action); err != nil {
		return nil, err
	}

	to, err := NextStatus(b.Status, action)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	switch action {
	case ActionCancel:
		if IsRenterInitiated(actor, b) {
			if err := CheckCancellationWindow(b, now, s.cutoff, s.loc); err != nil {
				return nil, err
			}
		}
	case ActionComplete:
		if err := CheckFinished(b, now, s.loc); err != nil {
			return nil, err
		}
	}

	var reasonPtr *string
	if action == ActionReject || action == ActionCancel {
		r := strings.TrimSpace(reason)
		if r == "" {
			r = defaultReason(actor, b, action)
		}
		reasonPtr = &r
	}

	updated, err := s.repo.UpdateStatus(ctx, b.ID, b.Status, to, reasonPtr)
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, updated, actor, action)
	return updated, nil
}

func defaultReason(actor Actor, b *Booking, action Action) string {
	if action == ActionReject {
		return "rejected by court owner"
	}
	switch {
	case actor.Role == RoleSystem:
		return AutoCancelReason
	case actor.Role == RoleAdmin:
		return "cancelled by administrator"
	case actor.ID == b.OwnerID:
		return "cancelled by court owner"
	default:
		return "cancelled by renter"
	}
}

// afterTransition sends notifications. Failures never undo the transition.
func (s *service) afterTransition(ctx context.Context, b *Booking, actor Actor, action Action) {
	switch action {
	case ActionApprove:
		if s.notify(ctx, notify.RKBookingConfirmed, b, b.RenterID) {
			if err := s.repo.MarkConfirmationSent(ctx, b.ID); err != nil {
				log.Warn().Err(err).Str("booking_id", b.ID).Msg("failed to flag confirmation as sent")
				return
			}
			b.EmailConfirmationSent = true
		}
	case ActionReject:
		s.notify(ctx, notify.RKBookingRejected, b, b.RenterID)
	case ActionCancel:
		switch {
		case actor.Role == RoleSystem:
			s.notify(ctx, notify.RKBookingAutoCancelled, b, b.RenterID)
		case actor.ID == b.RenterID:
			s.notify(ctx, notify.RKBookingCancelled, b, b.OwnerID)
		default:
			s.notify(ctx, notify.RKBookingCancelled, b, b.RenterID)
		}
	case ActionComplete:
		s.notify(ctx, notify.RKBookingCompleted, b, b.RenterID)
	}
}

// notify reports whether delivery succeeded. Errors are logged and swallowed.
func (s *service) notify(ctx context.Context, eventType string, b *Booking, recipient string) bool {
	if s.notifier == nil {
		return false
	}

	ev := notify.NewEvent(eventType, s.clock.Now())
	ev.BookingID = b.ID
	ev.CourtID = b.CourtID
	ev.RenterID = b.RenterID
	ev.OwnerID = b.OwnerID
	ev.Recipient = recipient
	ev.Status = string(b.Status)
	ev.Date = b.Date.String()
	ev.StartTime = timewindow.FormatMinute(b.Slot.Start)
	ev.EndTime = timewindow.FormatMinute(b.Slot.End)
	if b.CancellationReason != nil {
		ev.Reason = *b.CancellationReason
	}

	if err := s.notifier.Notify(ctx, ev); err != nil {
		log.Error().Err(err).
			Str("event", eventType).
			Str("booking_id", b.ID).
			Msg("notification failed, booking change kept")
		return false
	}
	return true
}

func (s *service) UpdatePaymentStatus(ctx context.Context, id string, actor Actor, status PaymentStatus) (*Booking, error) {
	if !status.IsValid() {
		return nil, ErrInvalidPaymentStatus
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleAdmin && actor.ID != b.OwnerID {
		return nil, ErrPermissionDenied
	}
	if b.Status == StatusRejected || b.Status == StatusCancelled {
		return nil, ErrPaymentLocked
	}

	if err := s.repo.UpdatePaymentStatus(ctx, id, status); err != nil {
		return nil, err
	}
	b.PaymentStatus = status
	return b, nil
}

func (s *service) IsSlotFree(ctx context.Context, courtID string, date timewindow.Date, slot timewindow.Interval, excludeBookingID string) (bool, error) {
	if _, err := timewindow.NewInterval(slot.Start, slot.End); err != nil {
		return false, ErrInvalidTimeRange
	}
	return s.checker.IsSlotFree(ctx, courtID, date, slot, excludeBookingID)
}

func (s *service) Availability(ctx context.Context, courtID string, date timewindow.Date) ([]timewindow.Interval, error) {
	if date.IsZero() {
		return nil, ErrInvalidDate
	}
	c, err := s.getCourt(ctx, courtID)
	if err != nil {
		return nil, err
	}
	hours, open := c.HoursOn(date.Weekday())
	if !open || !c.IsActive {
		return nil, nil
	}

	bookings, err := s.repo.ListActiveForSlot(ctx, courtID, date)
	if err != nil {
		return nil, err
	}
	return CalculateAvailability(hours, bookings), nil
}

func (s *service) IsWithinPendingWindow(b *Booking) bool {
	return IsWithinPendingWindow(b, s.clock.Now(), s.pendingWindow)
}

func (s *service) CanBeReviewed(ctx context.Context, id string, userID string) (bool, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if b.RenterID != userID {
		return false, nil
	}
	if b.Status != StatusConfirmed && b.Status != StatusCompleted {
		return false, nil
	}
	if b.IsReviewed {
		return false, nil
	}
	if s.reviews == nil {
		return true, nil
	}

	exists, err := s.reviews.ExistsForBooking(ctx, id)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *service) SweepStalePending(ctx context.Context, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		timeout = DefaultCleanupTimeout
	}
	now := s.clock.Now()

	stale, err := s.repo.ListStalePending(ctx, now.Add(-timeout))
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, b := range stale {
		if err := ctx.Err(); err != nil {
			return reclaimed, err
		}
		if !IsStalePending(b, now, timeout) {
			continue
		}
		if _, err := s.apply(ctx, b, SystemActor, ActionCancel, AutoCancelReason); err != nil {
			// The record stays pending and is picked up by the next sweep.
			log.Warn().Err(err).Str("booking_id", b.ID).Msg("failed to auto-cancel stale booking")
			continue
		}
		reclaimed++
	}
	return reclaimed, nil
}

func (s *service) CompleteElapsed(ctx context.Context) (int, error) {
	now := s.clock.Now()
	today := timewindow.DateOf(now.In(s.loc))

	confirmed, err := s.repo.ListConfirmedUntil(ctx, today)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, b := range confirmed {
		if err := ctx.Err(); err != nil {
			return completed, err
		}
		if now.Before(b.EndsAt(s.loc)) {
			continue
		}
		if _, err := s.apply(ctx, b, SystemActor, ActionComplete, ""); err != nil {
			log.Warn().Err(err).Str("booking_id", b.ID).Msg("failed to complete elapsed booking")
			continue
		}
		completed++
	}
	return completed, nil
}
