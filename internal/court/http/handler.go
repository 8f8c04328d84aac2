package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/court-booking-engine/internal/auth"
	"github.com/nekogravitycat/court-booking-engine/internal/court"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/request"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/response"
)

type Handler struct {
	service court.Service
}

func NewHandler(service court.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	var req ListCourtsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	courts, total, err := h.service.List(c.Request.Context(), court.Filter{
		OwnerID:   req.OwnerID,
		IsActive:  req.IsActive,
		Keyword:   req.Keyword,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]CourtResponse, len(courts))
	for i, ct := range courts {
		items[i] = NewCourtResponse(ct)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid court id", err)
		return
	}

	ct, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewCourtResponse(ct))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateCourtRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	ownerID := auth.GetUserID(c)
	if auth.IsAdmin(c) && body.OwnerID != "" {
		ownerID = body.OwnerID
	}

	ct, err := h.service.Create(c.Request.Context(), court.CreateRequest{
		OwnerID:        ownerID,
		Name:           body.Name,
		Description:    body.Description,
		HourlyPrice:    body.HourlyPrice,
		OperatingHours: body.OperatingHours,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewCourtResponse(ct))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid court id", err)
		return
	}
	var body UpdateCourtRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	ct, err := h.service.Update(c.Request.Context(), uri.ID, court.UpdateRequest{
		Name:           body.Name,
		Description:    body.Description,
		HourlyPrice:    body.HourlyPrice,
		IsActive:       body.IsActive,
		OperatingHours: body.OperatingHours,
	}, auth.GetUserID(c), auth.IsAdmin(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewCourtResponse(ct))
}
