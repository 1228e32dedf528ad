package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/sheetchart-api/internal/models"
)

// DatasetSummary is the compact listing shape used by history pages.
type DatasetSummary struct {
	ID         uint      `json:"id"`
	Filename   string    `json:"filename"`
	ChartType  *string   `json:"chartType"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// NewDatasetSummary converts a dataset model into a listing DTO.
func NewDatasetSummary(dataset models.Dataset) DatasetSummary {
	return DatasetSummary{
		ID:         dataset.ID,
		Filename:   dataset.Filename,
		ChartType:  dataset.ChartType,
		UploadedAt: dataset.UploadedAt,
	}
}

// NewDatasetSummarySlice converts dataset models into listing DTOs.
func NewDatasetSummarySlice(datasets []models.Dataset) []DatasetSummary {
	responses := make([]DatasetSummary, 0, len(datasets))
	for _, dataset := range datasets {
		responses = append(responses, NewDatasetSummary(dataset))
	}
	return responses
}

// ChartDataset holds the selected axes and the plotted values.
type ChartDataset struct {
	XAxis *string         `json:"xAxis"`
	YAxis *string         `json:"yAxis"`
	Data  json.RawMessage `json:"data"`
}

// DatasetResponse is the full dataset representation.
type DatasetResponse struct {
	ID         uint            `json:"id"`
	Filename   string          `json:"filename"`
	UploadedBy *UserSummary    `json:"uploadedBy"`
	Rows       json.RawMessage `json:"rows,omitempty"`
	RowCount   int             `json:"rowCount"`
	FileSize   int64           `json:"fileSize"`
	ChartType  *string         `json:"chartType"`
	Dataset    ChartDataset    `json:"dataset"`
	UploadedAt time.Time       `json:"uploadedAt"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// NewDatasetResponse converts a dataset model; rows are included only when requested.
func NewDatasetResponse(dataset models.Dataset, includeRows bool) DatasetResponse {
	response := DatasetResponse{
		ID:         dataset.ID,
		Filename:   dataset.Filename,
		UploadedBy: NewUserSummary(dataset.Uploader),
		RowCount:   dataset.RowCount,
		FileSize:   dataset.FileSize,
		ChartType:  dataset.ChartType,
		Dataset: ChartDataset{
			XAxis: dataset.XAxis,
			YAxis: dataset.YAxis,
			Data:  rawOrNull(dataset.ChartData),
		},
		UploadedAt: dataset.UploadedAt,
		CreatedAt:  dataset.CreatedAt,
	}
	if includeRows {
		response.Rows = rawOrNull(dataset.Rows)
	}
	return response
}

// NewDatasetResponseSlice converts dataset models without rows.
func NewDatasetResponseSlice(datasets []models.Dataset) []DatasetResponse {
	responses := make([]DatasetResponse, 0, len(datasets))
	for _, dataset := range datasets {
		responses = append(responses, NewDatasetResponse(dataset, false))
	}
	return responses
}

// UploadResponse is returned after a spreadsheet upload.
type UploadResponse struct {
	ID         uint         `json:"id"`
	Filename   string       `json:"filename"`
	RowCount   int          `json:"rowCount"`
	UploadedAt time.Time    `json:"uploadedAt"`
	Dataset    ChartDataset `json:"dataset"`
	Message    string       `json:"message"`
}

// ChartMetaRequest saves chart settings onto an uploaded dataset.
type ChartMetaRequest struct {
	Title     string       `json:"title" validate:"required,max=255"`
	ChartType string       `json:"chartType" validate:"required,oneof=bar line doughnut pie scatter"`
	Dataset   ChartDataset `json:"dataset"`
	DatasetID uint         `json:"datasetId" validate:"required"`
}

// ChartMetaResponse acknowledges a chart metadata save.
type ChartMetaResponse struct {
	ID         uint      `json:"id"`
	Filename   string    `json:"filename"`
	ChartType  string    `json:"chartType"`
	UploadedAt time.Time `json:"uploadedAt"`
	Message    string    `json:"message"`
}

// UserDashboardResponse summarises the caller's own uploads.
type UserDashboardResponse struct {
	TotalFiles       int64            `json:"totalFiles"`
	UniqueChartTypes int              `json:"uniqueChartTypes"`
	RecentUploads    []DatasetSummary `json:"recentUploads"`
}

// FileDownloadResponse describes a stored file.
type FileDownloadResponse struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
}

// ChartPreviewResponse is the admin chart preview payload.
type ChartPreviewResponse struct {
	Type  string          `json:"type"`
	Title string          `json:"title"`
	XAxis string          `json:"xAxis"`
	YAxis string          `json:"yAxis"`
	Data  json.RawMessage `json:"data"`
}

func rawOrNull(data []byte) json.RawMessage {
	if len(data) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(data)
}
