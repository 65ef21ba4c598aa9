package model

import "time"

// NodeTrackingMetadata MySQL model for node_tracking_metadata table
type NodeTrackingMetadata struct {
	ID               int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	NodeID           string        `gorm:"column:node_id;type:varchar(36);not null;uniqueIndex:idx_node_id_unique" json:"node_id"`
	UserID           string        `gorm:"column:user_id;type:varchar(36);not null;index:idx_user_id" json:"user_id"`
	TrackingStarted  time.Time     `gorm:"column:tracking_started;type:datetime(3);not null" json:"tracking_started"`
	CurrentYearStart time.Time     `gorm:"column:current_year_start;type:datetime(3);not null" json:"current_year_start"`
	ArchivedYears    ArchivedYears `gorm:"column:archived_years;type:json" json:"archived_years"`
	UpdatedAt        time.Time     `gorm:"column:updated_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"updated_at"`
}

// TableName specifies the table name for NodeTrackingMetadata
func (NodeTrackingMetadata) TableName() string {
	return "node_tracking_metadata"
}
