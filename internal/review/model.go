package review

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/court-booking-engine/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(http.StatusNotFound, "review not found")
	ErrInvalidRating   = apperror.New(http.StatusBadRequest, "rating must be an integer between 1 and 5")
	ErrCommentTooLong  = apperror.New(http.StatusBadRequest, "comment is too long")
	ErrNotEligible     = apperror.New(http.StatusConflict, "booking is not eligible for review")
	ErrAlreadyReviewed = apperror.New(http.StatusConflict, "booking has already been reviewed")
)

const MaxCommentLength = 2000

// Review is one renter's evaluation of a confirmed or completed booking.
// Reviews are immutable once stored.
type Review struct {
	ID        string
	CourtID   string
	BookingID string
	UserID    string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

type Filter struct {
	CourtID   string
	UserID    string
	Page      int
	PageSize  int
	SortOrder string
}
