package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Node connectivity values
const (
	NodeStatusOnline  = "online"
	NodeStatusOffline = "offline"
	NodeStatusUnknown = "unknown"
)

// Node job status values
const (
	JobStatusIdle    = "idle"
	JobStatusQueue   = "queue"
	JobStatusRunning = "running"
)

// Node MySQL model for nodes table. It is the persisted status view of a
// monitored host.
type Node struct {
	ID                  string              `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	UserID              string              `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex:idx_user_address,priority:1" json:"user_id"`
	Address             string              `gorm:"column:address;type:varchar(64);not null;uniqueIndex:idx_user_address,priority:2;index:idx_address" json:"address"`
	Name                string              `gorm:"column:name;type:varchar(100)" json:"name"`
	GPUType             string              `gorm:"column:gpu_type;type:varchar(100)" json:"gpu_type"`
	Status              string              `gorm:"column:status;type:varchar(20);not null;default:unknown;index:idx_status" json:"status"`
	JobStatus           string              `gorm:"column:job_status;type:varchar(20);not null;default:idle" json:"job_status"`
	SOLBalance          decimal.NullDecimal `gorm:"column:sol_balance;type:decimal(30,9)" json:"sol_balance"`
	NOSBalance          decimal.NullDecimal `gorm:"column:nos_balance;type:decimal(30,9)" json:"nos_balance"`
	JobStartTime        *time.Time          `gorm:"column:job_start_time;type:datetime(3)" json:"job_start_time"`
	JobCountCompleted   int64               `gorm:"column:job_count_completed;not null;default:0" json:"job_count_completed"`
	LastChecked         *time.Time          `gorm:"column:last_checked;type:datetime(3)" json:"last_checked"`
	LastLowBalanceAlert *time.Time          `gorm:"column:last_low_balance_alert;type:datetime(3)" json:"last_low_balance_alert"`
	CreatedAt           time.Time           `gorm:"column:created_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"updated_at"`
}

// TableName specifies the table name for Node
func (Node) TableName() string {
	return "nodes"
}

// DisplayName returns the node name, falling back to a shortened address.
func (n *Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	if len(n.Address) > 8 {
		return n.Address[:4] + "..." + n.Address[len(n.Address)-4:]
	}
	return n.Address
}
