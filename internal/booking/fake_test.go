package booking

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/nekogravitycat/court-booking-engine/internal/court"
	"github.com/nekogravitycat/court-booking-engine/internal/notify"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/timewindow"
)

// memRepo stores bookings in memory. Create does not check overlaps, so any
// double booking in tests comes from the service, not from here.
type memRepo struct {
	mu       sync.Mutex
	seq      int
	bookings map[string]*Booking
	now      func() time.Time

	failUpdate error
}

func newMemRepo(now func() time.Time) *memRepo {
	return &memRepo{bookings: make(map[string]*Booking), now: now}
}

func clone(b *Booking) *Booking {
	c := *b
	if b.CancellationReason != nil {
		r := *b.CancellationReason
		c.CancellationReason = &r
	}
	return &c
}

func (r *memRepo) Create(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	b.ID = "bk-" + strconv.Itoa(r.seq)
	b.CreatedAt = r.now()
	b.UpdatedAt = b.CreatedAt
	r.bookings[b.ID] = clone(b)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(b), nil
}

func (r *memRepo) List(_ context.Context, filter Filter) ([]*Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Booking
	for _, b := range r.bookings {
		if filter.CourtID != "" && b.CourtID != filter.CourtID {
			continue
		}
		if filter.RenterID != "" && b.RenterID != filter.RenterID {
			continue
		}
		if filter.Status != "" && string(b.Status) != filter.Status {
			continue
		}
		out = append(out, clone(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *memRepo) ListActiveForSlot(_ context.Context, courtID string, date timewindow.Date) ([]*Booking, error) {
	r.mu.Lock()
	var out []*Booking
	for _, b := range r.bookings {
		if b.CourtID == courtID && b.Date == date && b.Status.IsActive() {
			out = append(out, clone(b))
		}
	}
	r.mu.Unlock()
	// Widen the window between check and insert.
	runtime.Gosched()
	return out, nil
}

func (r *memRepo) ListStalePending(_ context.Context, createdBefore time.Time) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Booking
	for _, b := range r.bookings {
		if b.Status == StatusPending && b.CreatedAt.Before(createdBefore) {
			out = append(out, clone(b))
		}
	}
	return out, nil
}

func (r *memRepo) ListConfirmedUntil(_ context.Context, date timewindow.Date) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Booking
	for _, b := range r.bookings {
		if b.Status == StatusConfirmed && !date.Before(b.Date) {
			out = append(out, clone(b))
		}
	}
	return out, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id string, from, to Status, reason *string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return nil, r.failUpdate
	}
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if b.Status != from {
		return nil, ErrStatusChanged
	}
	b.Status = to
	if reason != nil {
		rs := *reason
		b.CancellationReason = &rs
	}
	b.UpdatedAt = r.now()
	return clone(b), nil
}

func (r *memRepo) UpdatePaymentStatus(_ context.Context, id string, status PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.PaymentStatus = status
	return nil
}

// markReviewed stands in for the review transaction flagging the booking.
func (r *memRepo) markReviewed(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[id].IsReviewed = true
}

func (r *memRepo) MarkConfirmationSent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.EmailConfirmationSent = true
	return nil
}

type memCourts map[string]*court.Court

func (m memCourts) GetByID(_ context.Context, id string) (*court.Court, error) {
	c, ok := m[id]
	if !ok {
		return nil, court.ErrNotFound
	}
	return c, nil
}

type memReviews map[string]bool

func (m memReviews) ExistsForBooking(_ context.Context, bookingID string) (bool, error) {
	return m[bookingID], nil
}

// recordingNotifier keeps every event and optionally fails delivery.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}

var errBoom = errors.New("boom")

// fakeClock is a settable clock safe for concurrent reads.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
