package model

import "time"

// PreferencesRequest partial preferences update; nil fields are unchanged
type PreferencesRequest struct {
	NotifyOffline      *bool `json:"notify_offline"`
	NotifyOnline       *bool `json:"notify_online"`
	NotifyJobStarted   *bool `json:"notify_job_started"`
	NotifyJobCompleted *bool `json:"notify_job_completed"`
	NotifyLowBalance   *bool `json:"notify_low_balance"`
}

// PreferencesResponse notification preferences
type PreferencesResponse struct {
	NotifyOffline      bool `json:"notify_offline"`
	NotifyOnline       bool `json:"notify_online"`
	NotifyJobStarted   bool `json:"notify_job_started"`
	NotifyJobCompleted bool `json:"notify_job_completed"`
	NotifyLowBalance   bool `json:"notify_low_balance"`
}

// RegisterTokenRequest push device token registration
type RegisterTokenRequest struct {
	Token    string `json:"token" binding:"required,max=512"`
	Platform string `json:"platform" binding:"omitempty,oneof=web android ios"`
}

// TelegramLinkRequest link request carrying the code issued by the bot
type TelegramLinkRequest struct {
	Code string `json:"code" binding:"required"`
}

// TelegramStatusResponse Telegram link status
type TelegramStatusResponse struct {
	Linked   bool       `json:"linked"`
	Username string     `json:"username,omitempty"`
	LinkedAt *time.Time `json:"linked_at,omitempty"`
}
