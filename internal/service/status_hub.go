package service

import (
	"sync"

	"nodemonitor/internal/model"
	"nodemonitor/pkg/logger"
	"nodemonitor/pkg/notification"
	mysqlModel "nodemonitor/pkg/store/mysql/model"

	"github.com/shopspring/decimal"
)

const subscriptionBuffer = 32

// Subscription receives status events for one user until closed
type Subscription struct {
	C <-chan model.NodeStatusEvent

	ch     chan model.NodeStatusEvent
	userID string
	hub    *StatusHub
	once   sync.Once
}

// Close unsubscribes and closes C
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// StatusHub fans node status updates out to a user's stream subscribers
type StatusHub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

// NewStatusHub creates an empty hub
func NewStatusHub() *StatusHub {
	return &StatusHub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers a subscriber for userID. On a closed hub the returned
// subscription is already closed.
func (h *StatusHub) Subscribe(userID string) *Subscription {
	ch := make(chan model.NodeStatusEvent, subscriptionBuffer)
	sub := &Subscription{C: ch, ch: ch, userID: userID, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return sub
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	return sub
}

func (h *StatusHub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sub.userID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.userID)
	}
	close(sub.ch)
}

// Close ends every open subscription. Later subscriptions start closed.
func (h *StatusHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for userID, set := range h.subs {
		for sub := range set {
			close(sub.ch)
		}
		delete(h.subs, userID)
	}
}

// Publish sends event to every subscriber of userID. Slow subscribers drop events.
func (h *StatusHub) Publish(userID string, event model.NodeStatusEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[userID] {
		select {
		case sub.ch <- event:
		default:
			logger.Debugf("dropping status event for slow subscriber of user %s", userID)
		}
	}
}

// Subscribers returns the number of open subscriptions of userID
func (h *StatusHub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// NodeView converts a stored node to its API view
func NodeView(node *mysqlModel.Node, dashboardBase string) model.NodeResponse {
	return model.NodeResponse{
		ID:                  node.ID,
		Address:             node.Address,
		Name:                node.Name,
		GPUType:             node.GPUType,
		Status:              node.Status,
		JobStatus:           node.JobStatus,
		SOLBalance:          nullable(node.SOLBalance),
		NOSBalance:          nullable(node.NOSBalance),
		JobStartTime:        node.JobStartTime,
		JobCountCompleted:   node.JobCountCompleted,
		LastChecked:         node.LastChecked,
		LastLowBalanceAlert: node.LastLowBalanceAlert,
		DashboardURL:        notification.DashboardURL(dashboardBase, node.Address),
		CreatedAt:           node.CreatedAt,
	}
}

// NodeViews converts stored nodes to API views
func NodeViews(nodes []*mysqlModel.Node, dashboardBase string) []model.NodeResponse {
	views := make([]model.NodeResponse, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, NodeView(n, dashboardBase))
	}
	return views
}

func nullable(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
