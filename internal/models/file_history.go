package models

import "time"

// FileHistory records every upload, independent of later dataset deletion.
type FileHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Filename   string    `gorm:"size:255;not null" json:"filename"`
	UploadedBy uint      `gorm:"not null;index" json:"uploaded_by"`
	Uploader   *User     `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
	FileSize   int64     `gorm:"not null" json:"file_size"`
	ChartType  string    `gorm:"size:32;not null;default:unknown" json:"chart_type"`
	UploadedAt time.Time `gorm:"index" json:"uploaded_at"`
}

// TableName keeps the history table name explicit.
func (FileHistory) TableName() string {
	return "file_histories"
}

// All returns every model managed by the API, in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Dataset{}, &UserLog{}, &FileHistory{}}
}
