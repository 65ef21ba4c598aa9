package interfaces

import (
	"context"

	"nodemonitor/pkg/notification"
)

// NotificationQueue hands a notification to background delivery.
type NotificationQueue interface {
	EnqueueNotification(ctx context.Context, msg *notification.Message) error
}

// NotificationSender delivers one notification over one channel.
type NotificationSender interface {
	Name() string
	Send(ctx context.Context, target notification.Target, msg *notification.Message) error
}
