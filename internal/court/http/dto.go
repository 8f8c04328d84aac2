package http

import (
	"time"

	"github.com/nekogravitycat/court-booking-engine/internal/court"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/request"
)

type ListCourtsRequest struct {
	request.ListParams
	OwnerID  string `form:"owner_id" binding:"omitempty,max=64"`
	IsActive *bool  `form:"is_active"`
	Keyword  string `form:"q" binding:"omitempty,max=100"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=name hourly_price rating created_at"`
}

type CourtResponse struct {
	ID             string            `json:"id"`
	OwnerID        string            `json:"owner_id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	HourlyPrice    float64           `json:"hourly_price"`
	IsActive       bool              `json:"is_active"`
	OperatingHours court.WeeklyHours `json:"operating_hours"`
	Rating         float64           `json:"rating"`
	ReviewCount    int               `json:"review_count"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func NewCourtResponse(c *court.Court) CourtResponse {
	return CourtResponse{
		ID:             c.ID,
		OwnerID:        c.OwnerID,
		Name:           c.Name,
		Description:    c.Description,
		HourlyPrice:    c.HourlyPrice,
		IsActive:       c.IsActive,
		OperatingHours: c.OperatingHours,
		Rating:         c.Rating,
		ReviewCount:    c.ReviewCount,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

type CreateCourtRequest struct {
	// OwnerID is honoured for admins only; owners always create for themselves.
	OwnerID        string            `json:"owner_id" binding:"omitempty,max=64"`
	Name           string            `json:"name" binding:"required,max=100"`
	Description    string            `json:"description" binding:"max=1000"`
	HourlyPrice    float64           `json:"hourly_price" binding:"min=0"`
	OperatingHours court.WeeklyHours `json:"operating_hours"`
}

type UpdateCourtRequest struct {
	Name           *string           `json:"name" binding:"omitempty,max=100"`
	Description    *string           `json:"description" binding:"omitempty,max=1000"`
	HourlyPrice    *float64          `json:"hourly_price" binding:"omitempty,min=0"`
	IsActive       *bool             `json:"is_active"`
	OperatingHours court.WeeklyHours `json:"operating_hours"`
}
