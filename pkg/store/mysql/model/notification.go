package model

import "time"

// NotificationPreferences MySQL model for notification_preferences table
type NotificationPreferences struct {
	UserID             string    `gorm:"column:user_id;type:varchar(36);primaryKey" json:"user_id"`
	NotifyOffline      bool      `gorm:"column:notify_offline;not null;default:true" json:"notify_offline"`
	NotifyOnline       bool      `gorm:"column:notify_online;not null;default:true" json:"notify_online"`
	NotifyJobStarted   bool      `gorm:"column:notify_job_started;not null;default:true" json:"notify_job_started"`
	NotifyJobCompleted bool      `gorm:"column:notify_job_completed;not null;default:true" json:"notify_job_completed"`
	NotifyLowBalance   bool      `gorm:"column:notify_low_balance;not null;default:true" json:"notify_low_balance"`
	UpdatedAt          time.Time `gorm:"column:updated_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"updated_at"`
}

// TableName specifies the table name for NotificationPreferences
func (NotificationPreferences) TableName() string {
	return "notification_preferences"
}

// DefaultPreferences returns preferences with every notification enabled.
func DefaultPreferences(userID string) *NotificationPreferences {
	return &NotificationPreferences{
		UserID:             userID,
		NotifyOffline:      true,
		NotifyOnline:       true,
		NotifyJobStarted:   true,
		NotifyJobCompleted: true,
		NotifyLowBalance:   true,
	}
}

// DeviceToken MySQL model for device_tokens table
type DeviceToken struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"column:user_id;type:varchar(36);not null;index:idx_user_id" json:"user_id"`
	Token     string    `gorm:"column:token;type:varchar(512);not null;uniqueIndex:idx_token_unique" json:"token"`
	Platform  string    `gorm:"column:platform;type:varchar(20)" json:"platform"`
	CreatedAt time.Time `gorm:"column:created_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"created_at"`
}

// TableName specifies the table name for DeviceToken
func (DeviceToken) TableName() string {
	return "device_tokens"
}

// TelegramUser MySQL model for telegram_users table
type TelegramUser struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   string    `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex:idx_user_id_unique" json:"user_id"`
	ChatID   int64     `gorm:"column:chat_id;not null;index:idx_chat_id" json:"chat_id"`
	Username string    `gorm:"column:username;type:varchar(255)" json:"username"`
	LinkedAt time.Time `gorm:"column:linked_at;type:datetime(3);not null" json:"linked_at"`
}

// TableName specifies the table name for TelegramUser
func (TelegramUser) TableName() string {
	return "telegram_users"
}

// TelegramLinkCode MySQL model for telegram_link_codes table. Rows are
// written by the bot and consumed when a user links their account.
type TelegramLinkCode struct {
	Code      string    `gorm:"column:code;type:varchar(16);primaryKey" json:"code"`
	ChatID    int64     `gorm:"column:chat_id;not null" json:"chat_id"`
	Username  string    `gorm:"column:username;type:varchar(255)" json:"username"`
	ExpiresAt time.Time `gorm:"column:expires_at;type:datetime(3);not null;index:idx_expires_at" json:"expires_at"`
}

// TableName specifies the table name for TelegramLinkCode
func (TelegramLinkCode) TableName() string {
	return "telegram_link_codes"
}
