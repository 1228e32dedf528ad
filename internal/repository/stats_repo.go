package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/sheetchart-api/internal/models"
)

// StatsRepository runs the row counts behind the admin dashboard counters.
type StatsRepository interface {
	CountUsers(ctx context.Context) (int64, error)
	CountDatasets(ctx context.Context) (int64, error)
	CountCharts(ctx context.Context) (int64, error)
	CountLogs(ctx context.Context) (int64, error)
	CountDatasetsSince(ctx context.Context, since time.Time) (int64, error)
	CountLogsSince(ctx context.Context, since time.Time) (int64, error)
	CountUploads(ctx context.Context) (int64, error)
	CountUploadsSince(ctx context.Context, since time.Time) (int64, error)
}

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository constructs the stats repository.
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) CountUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.User{}, nil)
}

func (r *statsRepository) CountDatasets(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Dataset{}, nil)
}

func (r *statsRepository) CountCharts(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Dataset{}, chartScope)
}

func (r *statsRepository) CountLogs(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.UserLog{}, nil)
}

func (r *statsRepository) CountDatasetsSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, &models.Dataset{}, createdSince(since))
}

func (r *statsRepository) CountLogsSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, &models.UserLog{}, createdSince(since))
}

func (r *statsRepository) CountUploads(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.FileHistory{}, nil)
}

func (r *statsRepository) CountUploadsSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, &models.FileHistory{}, func(db *gorm.DB) *gorm.DB {
		return db.Where("uploaded_at >= ?", since.UTC())
	})
}

func (r *statsRepository) count(ctx context.Context, model interface{}, scope func(*gorm.DB) *gorm.DB) (int64, error) {
	query := r.db.WithContext(ctx).Model(model)
	if scope != nil {
		query = query.Scopes(scope)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

func chartScope(db *gorm.DB) *gorm.DB {
	return db.Where("chart_type IS NOT NULL AND chart_type <> ''")
}

// createdSince binds the boundary in UTC. Timestamps are written in UTC and
// sqlite compares them as text, so both sides must share an offset.
func createdSince(since time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("created_at >= ?", since.UTC())
	}
}
