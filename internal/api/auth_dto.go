package api

import "time"

// TokenRequest is the payload for POST /v1/auth/token.
type TokenRequest struct {
	UserID string `json:"user_id" binding:"required,max=64"`
	Role   string `json:"role" binding:"required,oneof=renter owner admin"`
}

// TokenResponse is the response for POST /v1/auth/token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// MeResponse is the response for GET /v1/me.
type MeResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}
