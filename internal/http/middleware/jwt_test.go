package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nego/internal/domain"
	"nego/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	service.InitJWT("middleware-test-secret", time.Hour)

	r := gin.New()
	r.GET("/me", JWT(), func(c *gin.Context) {
		uid, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": uid})
	})
	r.GET("/admin", JWT(), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRejectsMissingAndBadTokens(t *testing.T) {
	r := authRouter()

	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "not-a-jwt").Code)
}

func TestJWTSetsUser(t *testing.T) {
	r := authRouter()
	token, err := service.GenerateJWT("6f1c2a9e-3d44-4b8e-9b63-0c6a5a1f2e11", domain.RoleClient)
	require.NoError(t, err)

	w := do(r, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "6f1c2a9e-3d44-4b8e-9b63-0c6a5a1f2e11")
}

func TestRequireAdmin(t *testing.T) {
	r := authRouter()

	client, err := service.GenerateJWT("6f1c2a9e-3d44-4b8e-9b63-0c6a5a1f2e11", domain.RoleClient)
	require.NoError(t, err)
	admin, err := service.GenerateJWT("0b7d7f8e-1a2b-4c3d-8e9f-a0b1c2d3e4f5", domain.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", client).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", admin).Code)
}
