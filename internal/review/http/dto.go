package http

import (
	"time"

	"github.com/nekogravitycat/court-booking-engine/internal/pkg/request"
	"github.com/nekogravitycat/court-booking-engine/internal/review"
)

type CreateReviewRequest struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment" binding:"max=2000"`
}

type ListReviewsRequest struct {
	request.ListParams
	CourtID string `form:"court_id" binding:"omitempty,uuid"`
	UserID  string `form:"user_id" binding:"omitempty,max=64"`
}

type ReviewResponse struct {
	ID        string    `json:"id"`
	CourtID   string    `json:"court_id"`
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func NewReviewResponse(r *review.Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		CourtID:   r.CourtID,
		BookingID: r.BookingID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}
