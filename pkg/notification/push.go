package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"nodemonitor/pkg/config"
	"nodemonitor/pkg/jsonx"
	"nodemonitor/pkg/logger"
)

// PushNotifier sends push notifications through the FCM HTTP API
type PushNotifier struct {
	url       string
	serverKey string
	client    *http.Client
}

// NewPushNotifier creates a push notifier. Without a server key every send
// is skipped.
func NewPushNotifier(cfg config.PushConfig) *PushNotifier {
	if cfg.ServerKey == "" {
		logger.Warn("FCM server key not configured, push notifications will be disabled")
	}
	return &PushNotifier{
		url:       cfg.URL,
		serverKey: cfg.ServerKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name implements Sender
func (p *PushNotifier) Name() string { return "push" }

type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Send implements Sender. Every device token is attempted; errors are joined.
func (p *PushNotifier) Send(ctx context.Context, target Target, msg *Message) error {
	if p.serverKey == "" || len(target.DeviceTokens) == 0 {
		return nil
	}

	var errs []error
	for _, token := range target.DeviceTokens {
		if err := p.sendOne(ctx, token, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *PushNotifier) sendOne(ctx context.Context, token string, msg *Message) error {
	data := map[string]string{"kind": string(msg.Kind)}
	if msg.NodeAddress != "" {
		data["node_address"] = msg.NodeAddress
	}
	if msg.URL != "" {
		data["url"] = msg.URL
	}

	payload, err := jsonx.Marshal(fcmMessage{
		To:           token,
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+p.serverKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("FCM returned status code %d", resp.StatusCode)
	}
	return nil
}
