package taskqueue

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"minefactory.backend/pkg/logger"
	"minefactory.backend/pkg/redis"
)

// DeadLetterKey is the Redis list holding recent dead letters for operators
const DeadLetterKey = "tasks:deadletter"

var (
	pushCapped = redis.PushCapped
	rangeList  = redis.Range
)

// RedisSink logs every dead letter and keeps the most recent ones in a capped Redis list
type RedisSink struct {
	Key    string
	MaxLen int64
}

// NewRedisSink creates a sink writing to DeadLetterKey
func NewRedisSink(maxLen int64) *RedisSink {
	return &RedisSink{Key: DeadLetterKey, MaxLen: maxLen}
}

// Record logs the letter and stores it; storage failures are only logged
func (s *RedisSink) Record(ctx context.Context, letter DeadLetter) {
	LogSink{}.Record(ctx, letter)

	payload, err := json.Marshal(letter)
	if err != nil {
		return
	}

	// the task context may already be cancelled or timed out
	storeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pushCapped(storeCtx, s.Key, payload, s.MaxLen); err != nil {
		logger.Warn(ctx, "Failed to store dead letter", zap.String("task", letter.Task), zap.Error(err))
	}
}

// Recent returns up to limit stored dead letters, newest first
func (s *RedisSink) Recent(ctx context.Context, limit int64) ([]DeadLetter, error) {
	if limit <= 0 {
		limit = s.MaxLen
	}
	items, err := rangeList(ctx, s.Key, 0, limit-1)
	if err != nil {
		return nil, err
	}

	letters := make([]DeadLetter, 0, len(items))
	for _, item := range items {
		var letter DeadLetter
		if err := json.Unmarshal([]byte(item), &letter); err != nil {
			continue
		}
		letters = append(letters, letter)
	}
	return letters, nil
}
