package notification

import (
	"fmt"

	"nodemonitor/pkg/dashboard"

	"github.com/shopspring/decimal"
)

// DashboardURL is the public host page for address.
func DashboardURL(base, address string) string {
	return base + address
}

// ShortAddress abbreviates an address as first8...last8.
func ShortAddress(address string) string {
	if len(address) <= 16 {
		return address
	}
	return address[:8] + "..." + address[len(address)-8:]
}

// Templates renders the fixed notification texts.
type Templates struct {
	DashboardBase string
}

// NodeOffline is sent when a node goes from online to offline.
func (t Templates) NodeOffline(userID, name, address string) *Message {
	return &Message{
		UserID:      userID,
		Kind:        KindNodeOffline,
		Title:       "🔴 NODE OFFLINE ALERT",
		Body:        fmt.Sprintf("Node: *%s*\nAddress: `%s`\n\n❗ Your node is currently offline.\n\n[View Dashboard](%s)", name, ShortAddress(address), DashboardURL(t.DashboardBase, address)),
		NodeAddress: address,
		URL:         DashboardURL(t.DashboardBase, address),
	}
}

// NodeOnline is sent when a node goes from offline to online.
func (t Templates) NodeOnline(userID, name, address string) *Message {
	return &Message{
		UserID:      userID,
		Kind:        KindNodeOnline,
		Title:       "✅ NODE BACK ONLINE",
		Body:        fmt.Sprintf("Node: *%s*\nAddress: `%s`\n\n🎉 Your node is back online and ready!", name, ShortAddress(address)),
		NodeAddress: address,
		URL:         DashboardURL(t.DashboardBase, address),
	}
}

// JobStarted is sent when a node picks up a job.
func (t Templates) JobStarted(userID, name, address string) *Message {
	return &Message{
		UserID:      userID,
		Kind:        KindJobStarted,
		Title:       "🚀 Job Started - " + name,
		Body:        fmt.Sprintf("Your node started running a job.\n\n[View Dashboard](%s)", DashboardURL(t.DashboardBase, address)),
		NodeAddress: address,
		URL:         DashboardURL(t.DashboardBase, address),
	}
}

// JobCompleted is sent when a running job finishes. Payment is omitted when
// earnings could not be computed.
func (t Templates) JobCompleted(userID, name, address string, durationSeconds int64, nos, usd *decimal.Decimal) *Message {
	body := "⏱️ Duration: " + dashboard.FormatDuration(durationSeconds)
	if nos != nil && usd != nil {
		body += fmt.Sprintf("\n💰 Payment: %s NOS (~$%s USD)", nos.StringFixed(2), usd.StringFixed(2))
	}
	body += fmt.Sprintf("\n\n[View Dashboard](%s)", DashboardURL(t.DashboardBase, address))
	return &Message{
		UserID:      userID,
		Kind:        KindJobCompleted,
		Title:       "🎉 Job Completed - " + name,
		Body:        body,
		NodeAddress: address,
		URL:         DashboardURL(t.DashboardBase, address),
	}
}

// LowBalance is sent when a node's SOL balance drops below threshold.
func (t Templates) LowBalance(userID, name, address string, sol decimal.Decimal, threshold float64) *Message {
	return &Message{
		UserID: userID,
		Kind:   KindLowBalance,
		Title:  "🟡 CRITICAL: LOW SOL BALANCE",
		Body: fmt.Sprintf("Node: *%s*\nAddress: `%s`\n\nCurrent Balance: *%s SOL*\nMinimum Required: *%s SOL*\n\n⚠️ *Action Required:* Top up immediately!\nYour node may stop accepting jobs.",
			name, ShortAddress(address), sol.StringFixed(6), decimal.NewFromFloat(threshold).String()),
		NodeAddress: address,
		URL:         DashboardURL(t.DashboardBase, address),
	}
}

// Test is sent on demand to verify delivery.
func (t Templates) Test(userID string) *Message {
	return &Message{
		UserID: userID,
		Kind:   KindTest,
		Title:  "🔔 Test Notification",
		Body:   "Notifications are working.",
	}
}
