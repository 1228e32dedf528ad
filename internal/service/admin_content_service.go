package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/models"
	"github.com/noah-isme/sheetchart-api/internal/repository"
)

var (
	// ErrFileNotFound indicates the requested dataset does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrChartNotFound indicates the dataset does not exist or has no chart.
	ErrChartNotFound = errors.New("chart not found")
)

// AdminContentService lets administrators inspect and remove uploaded files and charts.
type AdminContentService interface {
	ListFiles(ctx context.Context) ([]dto.DatasetResponse, error)
	FileHistory(ctx context.Context, request dto.FileHistoryListRequest) (dto.PagedResponse, error)
	Download(ctx context.Context, id uint) (dto.FileDownloadResponse, error)
	DeleteFile(ctx context.Context, id uint) error
	ListCharts(ctx context.Context) ([]dto.DatasetResponse, error)
	ChartPreview(ctx context.Context, id uint) (dto.ChartPreviewResponse, error)
	DeleteChart(ctx context.Context, id uint) error
}

type adminContentService struct {
	datasets repository.DatasetRepository
	logs     repository.ActivityLogRepository
	realtime RealtimeService
	stats    StatsNotifier
	logger   zerolog.Logger
}

// NewAdminContentService constructs the admin file/chart service.
func NewAdminContentService(datasets repository.DatasetRepository, logs repository.ActivityLogRepository, realtime RealtimeService, stats StatsNotifier, logger zerolog.Logger) AdminContentService {
	return &adminContentService{
		datasets: datasets,
		logs:     logs,
		realtime: realtime,
		stats:    stats,
		logger:   logger.With().Str("component", "admin_content_service").Logger(),
	}
}

func (s *adminContentService) ListFiles(ctx context.Context) ([]dto.DatasetResponse, error) {
	datasets, err := s.datasets.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewDatasetResponseSlice(datasets), nil
}

func (s *adminContentService) FileHistory(ctx context.Context, request dto.FileHistoryListRequest) (dto.PagedResponse, error) {
	page := request.PageRequest.Normalize()
	filter := repository.FileHistoryFilter{Offset: page.Offset(), Limit: page.Limit}
	if request.UploadedBy != 0 {
		uploadedBy := request.UploadedBy
		filter.UploadedBy = &uploadedBy
	}

	entries, total, err := s.logs.ListFileHistory(ctx, filter)
	if err != nil {
		return dto.PagedResponse{}, err
	}

	items := make([]dto.FileHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewFileHistoryResponse(entry))
	}

	return dto.PagedResponse{
		Success:    true,
		Data:       items,
		Pagination: dto.NewPageMeta(page.Page, page.Limit, total),
	}, nil
}

func (s *adminContentService) Download(ctx context.Context, id uint) (dto.FileDownloadResponse, error) {
	dataset, err := s.datasets.GetByID(ctx, id)
	if err != nil {
		return dto.FileDownloadResponse{}, mapDatasetError(err, ErrFileNotFound)
	}

	return dto.FileDownloadResponse{
		Filename:     dataset.Filename,
		OriginalName: dataset.Filename,
		Size:         dataset.FileSize,
	}, nil
}

func (s *adminContentService) DeleteFile(ctx context.Context, id uint) error {
	dataset, err := s.datasets.Delete(ctx, id)
	if err != nil {
		return mapDatasetError(err, ErrFileNotFound)
	}

	s.emit(ctx, dto.EventFileUpdate, dto.NewDatasetSummary(dataset))
	s.stats.Notify(ctx, StatsSourceFileDelete)
	return nil
}

func (s *adminContentService) ListCharts(ctx context.Context) ([]dto.DatasetResponse, error) {
	datasets, err := s.datasets.ListCharts(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewDatasetResponseSlice(datasets), nil
}

func (s *adminContentService) ChartPreview(ctx context.Context, id uint) (dto.ChartPreviewResponse, error) {
	dataset, err := s.datasets.GetByID(ctx, id)
	if err != nil {
		return dto.ChartPreviewResponse{}, mapDatasetError(err, ErrChartNotFound)
	}

	preview := dto.ChartPreviewResponse{
		Type:  models.ChartTypeBar,
		Title: "Chart Preview",
		XAxis: "X Axis",
		YAxis: "Y Axis",
		Data:  json.RawMessage("null"),
	}
	if dataset.IsChart() {
		preview.Type = *dataset.ChartType
	}
	if dataset.Filename != "" {
		preview.Title = dataset.Filename
	}
	if dataset.XAxis != nil && *dataset.XAxis != "" {
		preview.XAxis = *dataset.XAxis
	}
	if dataset.YAxis != nil && *dataset.YAxis != "" {
		preview.YAxis = *dataset.YAxis
	}
	if len(dataset.ChartData) > 0 {
		preview.Data = json.RawMessage(dataset.ChartData)
	}

	return preview, nil
}

func (s *adminContentService) DeleteChart(ctx context.Context, id uint) error {
	dataset, err := s.datasets.DeleteChart(ctx, id)
	if err != nil {
		return mapDatasetError(err, ErrChartNotFound)
	}

	s.emit(ctx, dto.EventChartUpdate, dto.NewDatasetSummary(dataset))
	s.stats.Notify(ctx, StatsSourceChartDelete)
	return nil
}

func (s *adminContentService) emit(ctx context.Context, event string, data interface{}) {
	if s.realtime == nil {
		return
	}
	if err := s.realtime.Publish(ctx, event, dto.EntityUpdatePayload{Action: "delete", Data: data}); err != nil {
		s.logger.Warn().Err(err).Str("event", event).Msg("failed to publish realtime event")
	}
}

func mapDatasetError(err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}
