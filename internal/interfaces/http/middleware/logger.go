package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"minefactory.backend/pkg/logger"
)

// LoggerMiddleware logs HTTP requests using the structured logger
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		logger.LogRequest(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}
