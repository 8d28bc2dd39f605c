package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minefactory.backend/pkg/jwt"
)

func newAuthRouter(svc *jwt.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	admin := r.Group("/admin", AuthMiddleware(svc), RequireAdmin())
	admin.GET("/ping", func(c *gin.Context) {
		operator, _ := GetOperator(c)
		c.String(http.StatusOK, operator)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	svc := jwt.NewJWTService("secret", time.Hour, "minefactory")
	r := newAuthRouter(svc)

	adminToken, err := svc.GenerateToken("ops@minefactory", jwt.RoleAdmin)
	require.NoError(t, err)
	viewerToken, err := svc.GenerateToken("viewer", "VIEWER")
	require.NoError(t, err)
	expired, err := jwt.NewJWTService("secret", -time.Minute, "minefactory").GenerateToken("ops", jwt.RoleAdmin)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, "Authorization header is required"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Invalid authorization format"},
		{"garbage token", "Bearer abc", http.StatusUnauthorized, "Invalid token"},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, "Token has expired"},
		{"wrong role", "Bearer " + viewerToken, http.StatusForbidden, "Insufficient permissions"},
		{"admin", "Bearer " + adminToken, http.StatusOK, "ops@minefactory"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
			if tc.header != "" {
				req.Header.Set(AuthorizationHeader, tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.body)
		})
	}
}

func TestRequireRole_NoRoleInContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireRole(jwt.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetOperator_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetOperator(c)
	assert.False(t, ok)
}
