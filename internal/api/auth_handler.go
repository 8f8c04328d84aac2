package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/court-booking-engine/internal/auth"
	"github.com/nekogravitycat/court-booking-engine/internal/pkg/response"
)

// AuthHandler exposes the caller's identity. Users are managed by an
// external identity provider that signs tokens with the shared secret.
type AuthHandler struct {
	jwtManager *auth.JWTManager
	ttl        time.Duration
}

func NewAuthHandler(jwtManager *auth.JWTManager, ttl time.Duration) *AuthHandler {
	return &AuthHandler{
		jwtManager: jwtManager,
		ttl:        ttl,
	}
}

//
// POST /v1/auth/token (non-production only)
//

func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	token, err := h.jwtManager.GenerateAccessToken(req.UserID, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		ExpiresAt:   time.Now().UTC().Add(h.ttl),
	})
}

//
// GET /v1/me
//

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, MeResponse{
		UserID: auth.GetUserID(c),
		Role:   auth.GetRole(c),
	})
}
