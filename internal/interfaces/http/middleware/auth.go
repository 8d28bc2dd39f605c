package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainerrors "minefactory.backend/internal/domain/errors"
	"minefactory.backend/internal/interfaces/http/response"
	"minefactory.backend/pkg/jwt"
	"minefactory.backend/pkg/logger"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// OperatorKey is the context key for the authenticated operator
	OperatorKey = "operator"
	// OperatorRoleKey is the context key for the operator role
	OperatorRoleKey = "operatorRole"
)

// TokenValidator verifies operator bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware authenticates the bearer token and stores the operator in context
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			logger.Warn(ctx, "Authorization header missing", zap.String("path", c.Request.URL.Path))
			response.Abort(c, domainerrors.Unauthorized("Authorization header is required"))
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			response.Abort(c, domainerrors.Unauthorized("Invalid authorization format. Use: Bearer <token>"))
			return
		}

		claims, err := validator.ValidateToken(strings.TrimPrefix(authHeader, BearerPrefix))
		if err != nil {
			logger.Warn(ctx, "Operator token rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			if errors.Is(err, jwt.ErrExpiredToken) {
				response.Abort(c, domainerrors.NewAppError(http.StatusUnauthorized, domainerrors.CodeUnauthorized, "Token has expired", domainerrors.ErrTokenExpired))
				return
			}
			response.Abort(c, domainerrors.Unauthorized("Invalid token"))
			return
		}

		c.Set(OperatorKey, claims.Subject)
		c.Set(OperatorRoleKey, claims.Role)
		c.Next()
	}
}

// GetOperator returns the authenticated operator subject
func GetOperator(c *gin.Context) (string, bool) {
	v, ok := c.Get(OperatorKey)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// RequireRole rejects operators whose token does not carry one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(OperatorRoleKey)
		if role == "" {
			response.Abort(c, domainerrors.Unauthorized("Operator role not found"))
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Abort(c, domainerrors.Forbidden("Insufficient permissions"))
	}
}

// RequireAdmin requires the admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(jwt.RoleAdmin)
}
