package review

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/court-booking-engine/internal/booking"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/keylock"
	"github.com/nekogravitycat/court-booking-engine/internal/rating"
)

type CreateRequest struct {
	BookingID string
	UserID    string
	Rating    int
	Comment   string
}

// Bookings is the slice of the booking engine that reviews depend on.
type Bookings interface {
	GetByID(ctx context.Context, id string) (*booking.Booking, error)
	CanBeReviewed(ctx context.Context, id string, userID string) (bool, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Review, error)
	GetByID(ctx context.Context, id string) (*Review, error)
	List(ctx context.Context, filter Filter) ([]*Review, int, error)
}

type service struct {
	repo     Repository
	bookings Bookings
	locks    *keylock.Locker
}

func NewService(repo Repository, bookings Bookings) Service {
	return &service{
		repo:     repo,
		bookings: bookings,
		locks:    keylock.New(),
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Review, error) {
	if !rating.ValidScore(req.Rating) {
		return nil, ErrInvalidRating
	}
	comment := strings.TrimSpace(req.Comment)
	if len(comment) > MaxCommentLength {
		return nil, ErrCommentTooLong
	}

	// One submission per booking at a time.
	unlock := s.locks.Lock(req.BookingID)
	defer unlock()

	ok, err := s.bookings.CanBeReviewed(ctx, req.BookingID, req.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotEligible
	}

	b, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	rv := &Review{
		CourtID:   b.CourtID,
		BookingID: b.ID,
		UserID:    req.UserID,
		Rating:    req.Rating,
		Comment:   comment,
	}
	summary, err := s.repo.CreateAccepted(ctx, rv, func(store rating.Store) (rating.Summary, error) {
		return rating.NewAggregator(store).Apply(ctx, rv.CourtID, rv.Rating)
	})
	if err != nil {
		if !errors.Is(err, ErrAlreadyReviewed) {
			log.Error().Err(err).
				Str("booking_id", rv.BookingID).
				Str("court_id", rv.CourtID).
				Msg("review rolled back")
		}
		return nil, err
	}

	log.Debug().
		Str("court_id", b.CourtID).
		Float64("rating", summary.Mean).
		Int("review_count", summary.Count).
		Msg("court rating updated")
	return rv, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Review, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Review, int, error) {
	return s.repo.List(ctx, filter)
}
