package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"minefactory.backend/internal/interfaces/http/response"
	"minefactory.backend/pkg/taskqueue"
)

type deadLetterReader interface {
	Recent(ctx context.Context, limit int64) ([]taskqueue.DeadLetter, error)
}

type queueStats interface {
	Pending() int
}

// TaskHandler shows background task health to operators
type TaskHandler struct {
	letters deadLetterReader
	queue   queueStats
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(letters deadLetterReader, queue queueStats) *TaskHandler {
	return &TaskHandler{letters: letters, queue: queue}
}

// ListDeadLetters returns the most recent failed side effects
// GET /api/v1/admin/tasks/dead-letters?limit=50
func (h *TaskHandler) ListDeadLetters(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit < 1 {
		limit = 50
	}

	letters, err := h.letters.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"pending":     h.queue.Pending(),
		"deadLetters": letters,
	})
}
