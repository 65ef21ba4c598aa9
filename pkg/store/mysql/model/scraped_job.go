package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScrapedJob MySQL model for scraped_jobs table, deduplicated on
// (job_id, node_address).
type ScrapedJob struct {
	ID              int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	JobID           string              `gorm:"column:job_id;type:varchar(128);not null;uniqueIndex:idx_job_node_unique,priority:1" json:"job_id"`
	NodeAddress     string              `gorm:"column:node_address;type:varchar(64);not null;uniqueIndex:idx_job_node_unique,priority:2;index:idx_node_address" json:"node_address"`
	UserID          string              `gorm:"column:user_id;type:varchar(36);not null;index:idx_user_id" json:"user_id"`
	NodeID          string              `gorm:"column:node_id;type:varchar(36);not null" json:"node_id"`
	StartedAt       time.Time           `gorm:"column:started_at;type:datetime(3);not null" json:"started_at"`
	CompletedAt     *time.Time          `gorm:"column:completed_at;type:datetime(3)" json:"completed_at"`
	DurationSeconds int64               `gorm:"column:duration_seconds;not null" json:"duration_seconds"`
	HourlyRateUSD   decimal.NullDecimal `gorm:"column:hourly_rate_usd;type:decimal(20,8)" json:"hourly_rate_usd"`
	GPUType         string              `gorm:"column:gpu_type;type:varchar(100)" json:"gpu_type"`
	Status          string              `gorm:"column:status;type:varchar(20);not null" json:"status"`
	StartedText     string              `gorm:"column:started_text;type:varchar(100)" json:"started_text"`
	DurationText    string              `gorm:"column:duration_text;type:varchar(100)" json:"duration_text"`
	ScrapedAt       time.Time           `gorm:"column:scraped_at;type:datetime(3);not null" json:"scraped_at"`
}

// TableName specifies the table name for ScrapedJob
func (ScrapedJob) TableName() string {
	return "scraped_jobs"
}
