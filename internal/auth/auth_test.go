package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)

	token, err := m.GenerateAccessToken("user-1", RoleOwner)
	require.NoError(t, err)

	claims, err := m.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, RoleOwner, claims.Role)

	_, err = m.GenerateAccessToken("user-1", "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestJWTRejectsBadTokens(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)

	other, err := NewJWTManager("other-secret", time.Minute).GenerateAccessToken("user-1", RoleRenter)
	require.NoError(t, err)
	_, err = m.ParseAndValidate(other)
	assert.Error(t, err, "wrong signature")

	expired, err := NewJWTManager("secret", -time.Minute).GenerateAccessToken("user-1", RoleRenter)
	require.NoError(t, err)
	_, err = m.ParseAndValidate(expired)
	assert.Error(t, err, "expired")

	noRole := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
	})
	signed, err := noRole.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.ParseAndValidate(signed)
	assert.Error(t, err, "missing role")
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewJWTManager("secret", time.Minute)

	r := gin.New()
	r.GET("/me", AuthRequired(m), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "role": GetRole(c), "admin": IsAdmin(c)})
	})
	r.GET("/admin", AuthRequired(m), RequireRole(RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	adminToken, err := m.GenerateAccessToken("admin-1", RoleAdmin)
	require.NoError(t, err)
	renterToken, err := m.GenerateAccessToken("renter-1", RoleRenter)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{name: "missing header", path: "/me", want: http.StatusUnauthorized},
		{name: "wrong scheme", path: "/me", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage token", path: "/me", header: "Bearer abc", want: http.StatusUnauthorized},
		{name: "valid token", path: "/me", header: "Bearer " + renterToken, want: http.StatusOK},
		{name: "admin route as renter", path: "/admin", header: "Bearer " + renterToken, want: http.StatusForbidden},
		{name: "admin route as admin", path: "/admin", header: "Bearer " + adminToken, want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
