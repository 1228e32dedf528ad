package dto

import (
	"time"

	"github.com/noah-isme/sheetchart-api/internal/models"
)

// UserLogResponse serializes an activity record.
type UserLogResponse struct {
	ID        uint         `json:"id"`
	UserID    uint         `json:"userId"`
	User      *UserSummary `json:"user"`
	Action    string       `json:"action"`
	Details   string       `json:"details"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewUserLogResponse converts a log model into a DTO.
func NewUserLogResponse(log models.UserLog) UserLogResponse {
	return UserLogResponse{
		ID:        log.ID,
		UserID:    log.UserID,
		User:      NewUserSummary(log.User),
		Action:    log.Action,
		Details:   log.Details,
		Timestamp: log.CreatedAt,
	}
}

// FileHistoryResponse serializes an upload history record.
type FileHistoryResponse struct {
	ID         uint         `json:"id"`
	Filename   string       `json:"filename"`
	UploadedBy *UserSummary `json:"uploadedBy"`
	FileSize   int64        `json:"fileSize"`
	ChartType  string       `json:"chartType"`
	UploadedAt time.Time    `json:"uploadedAt"`
}

// NewFileHistoryResponse converts a history model into a DTO.
func NewFileHistoryResponse(entry models.FileHistory) FileHistoryResponse {
	return FileHistoryResponse{
		ID:         entry.ID,
		Filename:   entry.Filename,
		UploadedBy: NewUserSummary(entry.Uploader),
		FileSize:   entry.FileSize,
		ChartType:  entry.ChartType,
		UploadedAt: entry.UploadedAt,
	}
}

// UserLogListRequest filters the activity log listing.
type UserLogListRequest struct {
	PageRequest
	UserID uint
}

// FileHistoryListRequest filters the upload history listing.
type FileHistoryListRequest struct {
	PageRequest
	UploadedBy uint
}

// PagedResponse is the {success, data, pagination} envelope used by log listings.
type PagedResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Pagination PageMeta    `json:"pagination"`
}
