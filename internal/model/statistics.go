package model

import "time"

// AppStatistics application-wide statistics
type AppStatistics struct {
	GeneratedAt time.Time `json:"generated_at"`

	Users          int64            `json:"users"`
	Nodes          int64            `json:"nodes"`
	NodesByStatus  map[string]int64 `json:"nodes_by_status"`
	NodesByJob     map[string]int64 `json:"nodes_by_job_status"`
	JobsRunning    int64            `json:"jobs_running"`
	JobsRecorded   int64            `json:"jobs_recorded"`
	EarningsUSD    float64          `json:"earnings_usd"`
	EarningsNOS    float64          `json:"earnings_nos"`
	TelegramLinked int64            `json:"telegram_linked"`
	DeviceTokens   int64            `json:"device_tokens"`

	Preferences PreferenceStatistics `json:"preferences"`
}

// PreferenceStatistics opt-in counts per notification type
type PreferenceStatistics struct {
	Offline      int64 `json:"offline"`
	Online       int64 `json:"online"`
	JobStarted   int64 `json:"job_started"`
	JobCompleted int64 `json:"job_completed"`
	LowBalance   int64 `json:"low_balance"`
}
