package auth

import "github.com/gin-gonic/gin"

const (
	ctxUserID = "userID"
	ctxRole   = "userRole"
)

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetRole returns the authenticated user's role or empty string.
func GetRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}

// IsAdmin reports whether the authenticated user carries the admin role.
func IsAdmin(c *gin.Context) bool {
	return GetRole(c) == RoleAdmin
}
