package notification

import "context"

// Kind identifies a notification type for preference gating.
type Kind string

const (
	KindNodeOffline  Kind = "node_offline"
	KindNodeOnline   Kind = "node_online"
	KindJobStarted   Kind = "job_started"
	KindJobCompleted Kind = "job_completed"
	KindLowBalance   Kind = "low_balance"
	KindTest         Kind = "test"
)

// Message is a rendered notification for one user.
type Message struct {
	UserID      string `json:"user_id"`
	Kind        Kind   `json:"kind"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	NodeAddress string `json:"node_address,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Text renders title and body as one Markdown message.
func (m *Message) Text() string {
	if m.Title == "" {
		return m.Body
	}
	return "*" + m.Title + "*\n\n" + m.Body
}

// Target is where a user's notifications go.
type Target struct {
	TelegramChatID int64
	DeviceTokens   []string
}

// Sender delivers a message over one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, target Target, msg *Message) error
}
