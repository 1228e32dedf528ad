package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/models"
	"github.com/noah-isme/sheetchart-api/internal/repository"
)

// ErrDatasetNotFound indicates the dataset does not exist or is not visible to the caller.
var ErrDatasetNotFound = errors.New("dataset not found")

const dashboardRecentUploads = 5

// DatasetService exposes a user's own datasets and chart metadata.
type DatasetService interface {
	SaveChartMeta(ctx context.Context, userID uint, request dto.ChartMetaRequest) (dto.ChartMetaResponse, error)
	Dashboard(ctx context.Context, userID uint) (dto.UserDashboardResponse, error)
	List(ctx context.Context) ([]dto.DatasetSummary, error)
	Get(ctx context.Context, id, userID uint) (dto.DatasetResponse, error)
}

type datasetService struct {
	repo      repository.DatasetRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	realtime  RealtimeService
	stats     StatsNotifier
	logger    zerolog.Logger
	now       func() time.Time
}

// NewDatasetService constructs the dataset service.
func NewDatasetService(repo repository.DatasetRepository, validate *validator.Validate, realtime RealtimeService, stats StatsNotifier, logger zerolog.Logger) DatasetService {
	return &datasetService{
		repo:      repo,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		realtime:  realtime,
		stats:     stats,
		logger:    logger.With().Str("component", "dataset_service").Logger(),
		now:       time.Now,
	}
}

func (s *datasetService) SaveChartMeta(ctx context.Context, userID uint, request dto.ChartMetaRequest) (dto.ChartMetaResponse, error) {
	request.Title = strings.TrimSpace(s.sanitizer.Sanitize(request.Title))
	request.ChartType = strings.ToLower(strings.TrimSpace(request.ChartType))
	if err := s.validator.Struct(request); err != nil {
		return dto.ChartMetaResponse{}, err
	}

	var chartData datatypes.JSON
	if len(request.Dataset.Data) > 0 && string(request.Dataset.Data) != "null" {
		chartData = datatypes.JSON(request.Dataset.Data)
	}

	updates := map[string]interface{}{
		"filename":    request.Title,
		"chart_type":  request.ChartType,
		"x_axis":      request.Dataset.XAxis,
		"y_axis":      request.Dataset.YAxis,
		"chart_data":  chartData,
		"uploaded_by": userID,
		"uploaded_at": s.now().UTC(),
	}
	entry := models.UserLog{
		UserID:  userID,
		Action:  models.UserLogActionChartSave,
		Details: fmt.Sprintf("Saved %s chart %s", request.ChartType, request.Title),
	}

	dataset, err := s.repo.UpdateChartMeta(ctx, request.DatasetID, updates, &entry)
	if err != nil {
		return dto.ChartMetaResponse{}, mapDatasetError(err, ErrDatasetNotFound)
	}

	publishLogEntry(ctx, s.realtime, s.logger, entry)
	s.stats.Notify(ctx, StatsSourceChartSave)

	return dto.ChartMetaResponse{
		ID:         dataset.ID,
		Filename:   dataset.Filename,
		ChartType:  request.ChartType,
		UploadedAt: dataset.UploadedAt,
		Message:    "Chart metadata saved successfully",
	}, nil
}

func (s *datasetService) Dashboard(ctx context.Context, userID uint) (dto.UserDashboardResponse, error) {
	total, err := s.repo.CountByOwner(ctx, userID)
	if err != nil {
		return dto.UserDashboardResponse{}, err
	}

	chartTypes, err := s.repo.DistinctChartTypesByOwner(ctx, userID)
	if err != nil {
		return dto.UserDashboardResponse{}, err
	}

	recent, err := s.repo.ListRecentByOwner(ctx, userID, dashboardRecentUploads)
	if err != nil {
		return dto.UserDashboardResponse{}, err
	}

	return dto.UserDashboardResponse{
		TotalFiles:       total,
		UniqueChartTypes: len(chartTypes),
		RecentUploads:    dto.NewDatasetSummarySlice(recent),
	}, nil
}

func (s *datasetService) List(ctx context.Context) ([]dto.DatasetSummary, error) {
	datasets, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewDatasetSummarySlice(datasets), nil
}

func (s *datasetService) Get(ctx context.Context, id, userID uint) (dto.DatasetResponse, error) {
	dataset, err := s.repo.GetForOwner(ctx, id, userID)
	if err != nil {
		return dto.DatasetResponse{}, mapDatasetError(err, ErrDatasetNotFound)
	}
	return dto.NewDatasetResponse(dataset, true), nil
}
