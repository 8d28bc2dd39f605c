package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"minefactory.backend/pkg/logger"
)

// RequestIDHeader carries the request id in and out of the API
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags each request with an id, reusing the caller's when present
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(string(logger.RequestIDKey), id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.RequestIDKey, id))

		c.Next()
	}
}
