package asynq

import (
	"context"
	"fmt"
	"time"

	"nodemonitor/pkg/config"
	"nodemonitor/pkg/jsonx"
	"nodemonitor/pkg/logger"
	"nodemonitor/pkg/notification"

	"github.com/hibiken/asynq"
)

const (
	TypeNotificationDeliver = "notification:deliver"

	queueName = "notifications"
)

// DeliverFunc delivers one notification.
type DeliverFunc func(ctx context.Context, msg *notification.Message) error

// Manager queue manager
type Manager struct {
	client      *asynq.Client
	server      *asynq.Server
	mux         *asynq.ServeMux
	redisOpt    asynq.RedisClientOpt
	taskTimeout time.Duration
}

// NewManager creates queue manager
func NewManager(cfg *config.Config) (*Manager, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			Queues: map[string]int{
				queueName: 10,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.WarnCtx(ctx, "task %s failed: %v", task.Type(), err)
			}),
		},
	)

	return &Manager{
		client:      asynq.NewClient(redisOpt),
		server:      server,
		mux:         asynq.NewServeMux(),
		redisOpt:    redisOpt,
		taskTimeout: time.Duration(cfg.Queue.TaskTimeout) * time.Second,
	}, nil
}

// NewDeliverTask builds a delivery task for msg.
func NewDeliverTask(msg *notification.Message) (*asynq.Task, error) {
	payload, err := jsonx.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}
	return asynq.NewTask(TypeNotificationDeliver, payload), nil
}

// ParseDeliverTask decodes a delivery task payload.
func ParseDeliverTask(task *asynq.Task) (*notification.Message, error) {
	var msg notification.Message
	if err := jsonx.Unmarshal(task.Payload(), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	return &msg, nil
}

// EnqueueNotification enqueues a fire-and-forget delivery. Deliveries are
// never retried.
func (m *Manager) EnqueueNotification(ctx context.Context, msg *notification.Message) error {
	task, err := NewDeliverTask(msg)
	if err != nil {
		return err
	}

	info, err := m.client.EnqueueContext(ctx, task,
		asynq.Queue(queueName),
		asynq.MaxRetry(0),
		asynq.Timeout(m.taskTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	logger.DebugCtx(ctx, "notification enqueued, id: %s, kind: %s", info.ID, msg.Kind)
	return nil
}

// RegisterDeliverHandler routes delivery tasks to deliver.
func (m *Manager) RegisterDeliverHandler(deliver DeliverFunc) {
	m.RegisterHandler(TypeNotificationDeliver, asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		msg, err := ParseDeliverTask(task)
		if err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return deliver(ctx, msg)
	}))
}

// RegisterHandler registers task handler
func (m *Manager) RegisterHandler(pattern string, handler asynq.Handler) {
	m.mux.Handle(pattern, handler)
}

// Start starts queue processor
func (m *Manager) Start() error {
	logger.InfoCtx(context.Background(), "starting queue server")
	return m.server.Start(m.mux)
}

// Stop stops queue processor
func (m *Manager) Stop() {
	logger.InfoCtx(context.Background(), "stopping queue server")
	m.server.Stop()
	m.server.Shutdown()
}

// Close closes client
func (m *Manager) Close() error {
	return m.client.Close()
}

// PendingCount returns the number of deliveries waiting in the queue
func (m *Manager) PendingCount() (int, error) {
	inspector := asynq.NewInspector(m.redisOpt)
	defer inspector.Close()

	stats, err := inspector.GetQueueInfo(queueName)
	if err != nil {
		return 0, err
	}
	return stats.Pending, nil
}
