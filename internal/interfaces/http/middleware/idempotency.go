package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domainerrors "minefactory.backend/internal/domain/errors"
	"minefactory.backend/internal/interfaces/http/response"
	"minefactory.backend/pkg/logger"
	"minefactory.backend/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	// LockDuration bounds how long a key stays in the processing state
	LockDuration = 30 * time.Second
	// RetentionDuration is how long a completed response is replayed
	RetentionDuration = 24 * time.Hour

	processingMarker = "processing"
)

var (
	redisGet   = redis.Get
	redisSet   = redis.Set
	redisSetNX = redis.SetNX
	redisDel   = redis.Del
)

type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response when an operator retries
// a request with the same Idempotency-Key. Requests without the header pass
// through unchanged.
func IdempotencyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		operator, _ := GetOperator(c)
		storageKey := fmt.Sprintf("idempotency:%s:%s:%s", operator, c.FullPath(), key)
		ctx := c.Request.Context()

		val, err := redisGet(ctx, storageKey)
		switch {
		case err == nil && val == processingMarker:
			response.Abort(c, domainerrors.Conflict("Request already in progress"))
			return
		case err == nil:
			var cached cachedResponse
			if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr != nil || cached.Status == 0 {
				logger.Warn(ctx, "Discarding unreadable idempotency record", zap.String("key", storageKey))
				_ = redisDel(ctx, storageKey)
				break
			}
			c.Header("X-Idempotency-Hit", "true")
			c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
			c.Abort()
			return
		case !errors.Is(err, goredis.Nil):
			logger.Warn(ctx, "Idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}

		acquired, err := redisSetNX(ctx, storageKey, processingMarker, LockDuration)
		if err != nil || !acquired {
			response.Abort(c, domainerrors.Conflict("Request already in progress"))
			return
		}

		w := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			_ = redisDel(ctx, storageKey)
			return
		}
		record, err := json.Marshal(cachedResponse{Status: status, Body: w.body.Bytes()})
		if err != nil {
			_ = redisDel(ctx, storageKey)
			return
		}
		if err := redisSet(ctx, storageKey, string(record), RetentionDuration); err != nil {
			logger.Warn(ctx, "Failed to store idempotent response", zap.Error(err))
		}
	}
}
