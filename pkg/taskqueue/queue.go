package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"minefactory.backend/pkg/logger"
)

// ErrQueueFull is recorded when a task is dropped because the buffer is full
var ErrQueueFull = errors.New("task queue full")

// ErrQueueClosed is recorded when a task is submitted after Shutdown
var ErrQueueClosed = errors.New("task queue closed")

// maxPendingDrops bounds dead letters for dropped tasks still being written to
// the sink. Past it a drop is only logged.
const maxPendingDrops = 16

// DeadLetter describes a task that failed, panicked or could not be queued
type DeadLetter struct {
	Task     string    `json:"task"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failedAt"`
}

// DeadLetterSink receives tasks that did not complete
type DeadLetterSink interface {
	Record(ctx context.Context, letter DeadLetter)
}

// Config tunes the queue
type Config struct {
	Workers     int
	Size        int
	TaskTimeout time.Duration
}

type job struct {
	name string
	fn   func(ctx context.Context) error
}

// Queue is a bounded fire-and-forget worker pool. Submit never blocks the
// caller; task errors are handed to the dead-letter sink and never returned.
type Queue struct {
	cfg    Config
	jobs   chan job
	sink   DeadLetterSink
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	drops   chan struct{}
	dropsWG sync.WaitGroup

	mu     sync.RWMutex
	closed bool
	start  sync.Once
}

// New creates a queue; call Start to launch the workers
func New(cfg Config, sink DeadLetterSink) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Size <= 0 {
		cfg.Size = 100
	}
	if sink == nil {
		sink = LogSink{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		cfg:    cfg,
		jobs:   make(chan job, cfg.Size),
		sink:   sink,
		ctx:    ctx,
		cancel: cancel,
		drops:  make(chan struct{}, maxPendingDrops),
	}
}

// Start launches the worker goroutines. Calling it more than once is a no-op.
func (q *Queue) Start() {
	q.start.Do(func() {
		for i := 0; i < q.cfg.Workers; i++ {
			q.wg.Add(1)
			go q.worker()
		}
	})
}

// Submit enqueues fn under name. It returns false when the task was dropped.
// The dead letter for a dropped task is written off the caller's goroutine.
func (q *Queue) Submit(name string, fn func(ctx context.Context) error) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.drop(DeadLetter{Task: name, Error: ErrQueueClosed.Error(), FailedAt: time.Now()})
		return false
	}

	select {
	case q.jobs <- job{name: name, fn: fn}:
		return true
	default:
		q.drop(DeadLetter{Task: name, Error: ErrQueueFull.Error(), FailedAt: time.Now()})
		return false
	}
}

func (q *Queue) drop(letter DeadLetter) {
	select {
	case q.drops <- struct{}{}:
		q.dropsWG.Add(1)
		go func() {
			defer func() {
				<-q.drops
				q.dropsWG.Done()
			}()
			q.sink.Record(q.ctx, letter)
		}()
	default:
		LogSink{}.Record(q.ctx, letter)
	}
}

// Shutdown stops accepting tasks and waits for queued ones to drain or ctx to end
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		q.dropsWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		return ctx.Err()
	}
}

// Pending returns the number of queued tasks
func (q *Queue) Pending() int {
	return len(q.jobs)
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for j := range q.jobs {
		q.run(j)
	}
}

func (q *Queue) run(j job) {
	ctx := q.ctx
	if q.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.cfg.TaskTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			q.sink.Record(ctx, DeadLetter{Task: j.name, Error: fmt.Sprintf("panic: %v", r), FailedAt: time.Now()})
		}
	}()

	if err := j.fn(ctx); err != nil {
		q.sink.Record(ctx, DeadLetter{Task: j.name, Error: err.Error(), FailedAt: time.Now()})
		return
	}
	logger.Debug(ctx, "Task completed", zap.String("task", j.name))
}

// LogSink writes dead letters to the structured log only
type LogSink struct{}

// Record logs the failed task at error level
func (LogSink) Record(ctx context.Context, letter DeadLetter) {
	logger.Error(ctx, "Background task failed",
		zap.String("task", letter.Task),
		zap.String("error", letter.Error),
		zap.Time("failed_at", letter.FailedAt),
	)
}
