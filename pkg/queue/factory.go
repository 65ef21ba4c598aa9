package queue

import (
	"context"
	"time"

	"nodemonitor/pkg/config"
	"nodemonitor/pkg/logger"
	"nodemonitor/pkg/notification"
	"nodemonitor/pkg/queue/asynq"
)

// Runner is a notification queue with a lifecycle.
type Runner interface {
	EnqueueNotification(ctx context.Context, msg *notification.Message) error
	Start() error
	Stop()
}

// NewNotificationQueue returns an asynq-backed queue when queue.enabled is
// set, else an in-process queue that delivers on goroutines.
func NewNotificationQueue(cfg *config.Config, deliver asynq.DeliverFunc) (Runner, error) {
	if !cfg.Queue.Enabled {
		return NewInlineQueue(deliver, time.Duration(cfg.Queue.TaskTimeout)*time.Second), nil
	}

	m, err := asynq.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	m.RegisterDeliverHandler(deliver)
	return &asynqRunner{Manager: m}, nil
}

type asynqRunner struct {
	*asynq.Manager
}

func (r *asynqRunner) Stop() {
	r.Manager.Stop()
	if err := r.Manager.Close(); err != nil {
		logger.Warnf("failed to close queue client: %v", err)
	}
}
