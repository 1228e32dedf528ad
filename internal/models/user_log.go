package models

import "time"

// User log actions recorded by the API.
const (
	UserLogActionUpload    = "upload"
	UserLogActionChartSave = "chart_save"
)

// UserLog is an append-only activity record.
type UserLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_user_logs_user_created,priority:1" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action    string    `gorm:"size:64;not null" json:"action"`
	Details   string    `gorm:"size:1024" json:"details"`
	CreatedAt time.Time `gorm:"index;index:idx_user_logs_user_created,priority:2" json:"timestamp"`
}
