package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/sheetchart-api/internal/models"
)

// UserLogFilter narrows activity log queries.
type UserLogFilter struct {
	Offset int
	Limit  int
	UserID *uint
}

// FileHistoryFilter narrows upload history queries.
type FileHistoryFilter struct {
	Offset     int
	Limit      int
	UploadedBy *uint
}

// ActivityLogRepository persists the user activity trail and upload history.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.UserLog) error
	List(ctx context.Context, filter UserLogFilter) ([]models.UserLog, int64, error)
	ListFileHistory(ctx context.Context, filter FileHistoryFilter) ([]models.FileHistory, int64, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository constructs the activity log repository.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *models.UserLog) error {
	return r.db.WithContext(ctx).Omit("User").Create(entry).Error
}

func (r *activityLogRepository) List(ctx context.Context, filter UserLogFilter) ([]models.UserLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.UserLog{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	var entries []models.UserLog
	if err := query.Preload("User").Order("created_at DESC").Order("id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *activityLogRepository) ListFileHistory(ctx context.Context, filter FileHistoryFilter) ([]models.FileHistory, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FileHistory{})

	if filter.UploadedBy != nil {
		query = query.Where("uploaded_by = ?", *filter.UploadedBy)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	var entries []models.FileHistory
	if err := query.Preload("Uploader").Order("uploaded_at DESC").Order("id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
