package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.POST("", h.Create)
		group.GET("/availability", h.Availability)
		group.GET("/slot-check", h.CheckSlot)
		group.GET("/:id", h.Get)
		group.POST("/:id/transitions", h.Transition)
		group.PATCH("/:id/payment", h.UpdatePayment)
		group.GET("/:id/reviewable", h.Reviewable)

		// === Admin Routes ===
		group.POST("/sweep", adminMiddleware, h.Sweep)
	}
}
