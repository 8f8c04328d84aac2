package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/court-booking-engine/internal/auth"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/request"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/response"
	"github.com/nekogravitycat/court-booking-engine/internal/review"
)

type Handler struct {
	service review.Service
}

func NewHandler(service review.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateReviewRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	rv, err := h.service.Create(c.Request.Context(), review.CreateRequest{
		BookingID: body.BookingID,
		UserID:    auth.GetUserID(c),
		Rating:    body.Rating,
		Comment:   body.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewReviewResponse(rv))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid review id", err)
		return
	}

	rv, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReviewResponse(rv))
}

func (h *Handler) List(c *gin.Context) {
	var req ListReviewsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	reviews, total, err := h.service.List(c.Request.Context(), review.Filter{
		CourtID:   req.CourtID,
		UserID:    req.UserID,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ReviewResponse, len(reviews))
	for i, rv := range reviews {
		items[i] = NewReviewResponse(rv)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}
