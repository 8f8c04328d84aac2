package court

import (
	"context"
	"strings"

	"github.com/nekogravitycat/court-booking-engine/internal/pkg/timewindow"
)

type CreateRequest struct {
	OwnerID        string
	Name           string
	Description    string
	HourlyPrice    float64
	OperatingHours WeeklyHours
}

type UpdateRequest struct {
	Name           *string
	Description    *string
	HourlyPrice    *float64
	IsActive       *bool
	OperatingHours WeeklyHours
}

// Service is the court catalog consumed by the scheduling engine.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Court, error)
	GetByID(ctx context.Context, id string) (*Court, error)
	List(ctx context.Context, filter Filter) ([]*Court, int, error)
	// Update applies a partial change. Only the owner or an admin may update a court.
	Update(ctx context.Context, id string, req UpdateRequest, actorID string, isAdmin bool) (*Court, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func validateHours(hours WeeklyHours) error {
	for _, iv := range hours {
		if _, err := timewindow.NewInterval(iv.Start, iv.End); err != nil {
			return ErrInvalidHours
		}
	}
	return nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Court, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	if req.OwnerID == "" {
		return nil, ErrOwnerRequired
	}
	if req.HourlyPrice < 0 {
		return nil, ErrInvalidPrice
	}
	if err := validateHours(req.OperatingHours); err != nil {
		return nil, err
	}

	c := &Court{
		OwnerID:        req.OwnerID,
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		HourlyPrice:    req.HourlyPrice,
		IsActive:       true,
		OperatingHours: req.OperatingHours,
	}
	if c.OperatingHours == nil {
		c.OperatingHours = WeeklyHours{}
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Court, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Court, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest, actorID string, isAdmin bool) (*Court, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && c.OwnerID != actorID {
		return nil, ErrPermissionDenied
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		c.Name = name
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.HourlyPrice != nil {
		if *req.HourlyPrice < 0 {
			return nil, ErrInvalidPrice
		}
		c.HourlyPrice = *req.HourlyPrice
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if req.OperatingHours != nil {
		if err := validateHours(req.OperatingHours); err != nil {
			return nil, err
		}
		c.OperatingHours = req.OperatingHours
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
