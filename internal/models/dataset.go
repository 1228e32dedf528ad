package models

import (
	"time"

	"gorm.io/datatypes"
)

// Chart types accepted when saving chart metadata.
const (
	ChartTypeBar      = "bar"
	ChartTypeLine     = "line"
	ChartTypeDoughnut = "doughnut"
	ChartTypePie      = "pie"
	ChartTypeScatter  = "scatter"
)

// Dataset is an uploaded spreadsheet. A dataset with a chart type is a chart.
type Dataset struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Filename   string         `gorm:"size:255;not null" json:"filename"`
	UploadedBy uint           `gorm:"index" json:"uploaded_by"`
	Uploader   *User          `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
	Rows       datatypes.JSON `json:"rows"`
	RowCount   int            `json:"row_count"`
	FileSize   int64          `json:"file_size"`
	ChartType  *string        `gorm:"size:32;index" json:"chart_type"`
	XAxis      *string        `gorm:"size:255" json:"x_axis"`
	YAxis      *string        `gorm:"size:255" json:"y_axis"`
	ChartData  datatypes.JSON `json:"chart_data"`
	UploadedAt time.Time      `gorm:"index" json:"uploaded_at"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// IsChart reports whether chart metadata has been saved for the dataset.
func (d Dataset) IsChart() bool {
	return d.ChartType != nil && *d.ChartType != ""
}
