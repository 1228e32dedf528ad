package models

import (
	"time"

	"gorm.io/gorm"
)

func utcOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// BeforeCreate stores dataset timestamps in UTC.
func (d *Dataset) BeforeCreate(*gorm.DB) error {
	d.CreatedAt = utcOrNow(d.CreatedAt)
	d.UploadedAt = utcOrNow(d.UploadedAt)
	return nil
}

// BeforeCreate stores log timestamps in UTC.
func (l *UserLog) BeforeCreate(*gorm.DB) error {
	l.CreatedAt = utcOrNow(l.CreatedAt)
	return nil
}

// BeforeCreate stores history timestamps in UTC.
func (h *FileHistory) BeforeCreate(*gorm.DB) error {
	h.UploadedAt = utcOrNow(h.UploadedAt)
	return nil
}
