package model

import (
	"time"

	"nodemonitor/pkg/earnings"
)

// EarningsSummaryResponse summary response
type EarningsSummaryResponse struct {
	Timezone string           `json:"timezone"`
	Summary  earnings.Summary `json:"summary"`
}

// EarningsSeriesResponse daily/monthly/yearly series
type EarningsSeriesResponse struct {
	Period  string            `json:"period"` // day, month, year
	Buckets []earnings.Bucket `json:"buckets"`
	Total   earnings.Bucket   `json:"total"`
}

// TrackingYearResponse the open tracking-year window of a node
type TrackingYearResponse struct {
	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`
	Totals    earnings.Bucket `json:"totals"`
}

// NodeEarningsResponse per-node earnings
type NodeEarningsResponse struct {
	NodeID          string                  `json:"node_id"`
	NodeName        string                  `json:"node_name"`
	Summary         earnings.Summary        `json:"summary"`
	TrackingStarted *time.Time              `json:"tracking_started"`
	CurrentYear     *TrackingYearResponse   `json:"current_year"`
	ArchivedYears   []earnings.ArchivedYear `json:"archived_years"`
}

// SyncResponse scrape-and-store result
type SyncResponse struct {
	Scraped  int `json:"scraped"`
	Skipped  int `json:"skipped"`
	Inserted int `json:"inserted"`
	Recorded int `json:"recorded"`
}
