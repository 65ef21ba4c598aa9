package queue

import (
	"context"
	"sync"
	"time"

	"nodemonitor/pkg/logger"
	"nodemonitor/pkg/notification"
	"nodemonitor/pkg/queue/asynq"
)

// InlineQueue delivers each notification on its own goroutine, detached
// from the caller's context.
type InlineQueue struct {
	deliver asynq.DeliverFunc
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewInlineQueue creates an in-process queue
func NewInlineQueue(deliver asynq.DeliverFunc, timeout time.Duration) *InlineQueue {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &InlineQueue{deliver: deliver, timeout: timeout}
}

// EnqueueNotification starts delivery and returns immediately
func (q *InlineQueue) EnqueueNotification(ctx context.Context, msg *notification.Message) error {
	traceID := logger.TraceID(ctx)
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		dctx, cancel := context.WithTimeout(logger.WithTraceID(context.Background(), traceID), q.timeout)
		defer cancel()
		if err := q.deliver(dctx, msg); err != nil {
			logger.WarnCtx(dctx, "notification delivery failed, kind: %s, error: %v", msg.Kind, err)
		}
	}()
	return nil
}

// Start implements Runner
func (q *InlineQueue) Start() error { return nil }

// Stop waits for in-flight deliveries
func (q *InlineQueue) Stop() { q.wg.Wait() }
