package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/court-booking-engine/internal/auth"
)

// RequireAdmin ensures the authenticated user is an admin.
// It MUST be used after auth.AuthRequired middleware.
func RequireAdmin() gin.HandlerFunc {
	return auth.RequireRole(auth.RoleAdmin)
}

// RequireCourtManager admits court owners and admins. Whether an owner
// manages a particular court is decided by the service.
func RequireCourtManager() gin.HandlerFunc {
	return auth.RequireRole(auth.RoleOwner, auth.RoleAdmin)
}

// RequestLogger writes one structured line per request in production,
// where gin's text logger is disabled.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		evt := log.Info()
		if c.Writer.Status() >= 500 {
			evt = log.Error()
		}
		evt.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("user_id", auth.GetUserID(c)).
			Msg("request")
	}
}
