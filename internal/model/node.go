package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateNodeRequest create node request
type CreateNodeRequest struct {
	Address string `json:"address" binding:"required,min=32,max=44"`
	Name    string `json:"name" binding:"max=100"`
	GPUType string `json:"gpu_type" binding:"max=100"`
}

// UpdateNodeRequest update node request; nil fields are unchanged
type UpdateNodeRequest struct {
	Name    *string `json:"name" binding:"omitempty,max=100"`
	GPUType *string `json:"gpu_type" binding:"omitempty,max=100"`
}

// NodeResponse node status view
type NodeResponse struct {
	ID                  string           `json:"id"`
	Address             string           `json:"address"`
	Name                string           `json:"name"`
	GPUType             string           `json:"gpu_type"`
	Status              string           `json:"status"`
	JobStatus           string           `json:"job_status"`
	SOLBalance          *decimal.Decimal `json:"sol_balance"`
	NOSBalance          *decimal.Decimal `json:"nos_balance"`
	JobStartTime        *time.Time       `json:"job_start_time"`
	JobCountCompleted   int64            `json:"job_count_completed"`
	LastChecked         *time.Time       `json:"last_checked"`
	LastLowBalanceAlert *time.Time       `json:"last_low_balance_alert"`
	DashboardURL        string           `json:"dashboard_url"`
	CreatedAt           time.Time        `json:"created_at"`
}

// NodeStatusEvent is pushed to stream subscribers after a reconcile
type NodeStatusEvent struct {
	Type string       `json:"type"` // "node_status"
	Node NodeResponse `json:"node"`
}

// RefreshResponse result of a status refresh
type RefreshResponse struct {
	Nodes     []NodeResponse `json:"nodes"`
	Refreshed int            `json:"refreshed"`
	Failed    int            `json:"failed"`
}
