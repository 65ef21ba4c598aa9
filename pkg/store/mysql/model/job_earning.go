package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// JobEarning MySQL model for job_earnings table. NOSEarned always equals
// USDValue / NOSPriceAtTime.
type JobEarning struct {
	ID              string          `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	UserID          string          `gorm:"column:user_id;type:varchar(36);not null;index:idx_user_completed,priority:1;index:idx_user_date,priority:1" json:"user_id"`
	NodeID          string          `gorm:"column:node_id;type:varchar(36);not null;index:idx_node_completed,priority:1" json:"node_id"`
	NodeName        string          `gorm:"column:node_name;type:varchar(100)" json:"node_name"`
	JobID           *string         `gorm:"column:job_id;type:varchar(128)" json:"job_id"`
	CompletedAt     time.Time       `gorm:"column:completed_at;type:datetime(3);not null;index:idx_user_completed,priority:2;index:idx_node_completed,priority:2" json:"completed_at"`
	DurationSeconds int64           `gorm:"column:duration_seconds;not null" json:"duration_seconds"`
	USDValue        decimal.Decimal `gorm:"column:usd_value;type:decimal(20,8);not null" json:"usd_value"`
	NOSEarned       decimal.Decimal `gorm:"column:nos_earned;type:decimal(30,12);not null" json:"nos_earned"`
	NOSPriceAtTime  decimal.Decimal `gorm:"column:nos_price_at_time;type:decimal(20,8);not null" json:"nos_price_at_time"`
	HourlyRateUSD   decimal.Decimal `gorm:"column:hourly_rate_usd;type:decimal(20,8);not null" json:"hourly_rate_usd"`
	RateSource      string          `gorm:"column:rate_source;type:varchar(20);not null" json:"rate_source"`
	Date            string          `gorm:"column:date;type:char(10);not null;index:idx_user_date,priority:2" json:"date"`
	Month           string          `gorm:"column:month;type:char(7);not null" json:"month"`
	Year            string          `gorm:"column:year;type:char(4);not null" json:"year"`
	CreatedAt       time.Time       `gorm:"column:created_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"created_at"`
}

// TableName specifies the table name for JobEarning
func (JobEarning) TableName() string {
	return "job_earnings"
}
