package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/sheetchart-api/internal/models"
)

// DatasetRepository persists uploaded spreadsheets and their chart metadata.
type DatasetRepository interface {
	CreateUpload(ctx context.Context, dataset *models.Dataset, history *models.FileHistory, log *models.UserLog) error
	GetByID(ctx context.Context, id uint) (models.Dataset, error)
	GetForOwner(ctx context.Context, id, ownerID uint) (models.Dataset, error)
	List(ctx context.Context) ([]models.Dataset, error)
	ListCharts(ctx context.Context) ([]models.Dataset, error)
	ListRecentByOwner(ctx context.Context, ownerID uint, limit int) ([]models.Dataset, error)
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
	DistinctChartTypesByOwner(ctx context.Context, ownerID uint) ([]string, error)
	UpdateChartMeta(ctx context.Context, id uint, updates map[string]interface{}, log *models.UserLog) (models.Dataset, error)
	Delete(ctx context.Context, id uint) (models.Dataset, error)
	DeleteChart(ctx context.Context, id uint) (models.Dataset, error)
}

type datasetRepository struct {
	db *gorm.DB
}

// NewDatasetRepository constructs the dataset repository.
func NewDatasetRepository(db *gorm.DB) DatasetRepository {
	return &datasetRepository{db: db}
}

func (r *datasetRepository) CreateUpload(ctx context.Context, dataset *models.Dataset, history *models.FileHistory, log *models.UserLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Uploader").Create(dataset).Error; err != nil {
			return err
		}
		if history != nil {
			if err := tx.Omit("Uploader").Create(history).Error; err != nil {
				return err
			}
		}
		if log != nil {
			if err := tx.Omit("User").Create(log).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *datasetRepository) GetByID(ctx context.Context, id uint) (models.Dataset, error) {
	var dataset models.Dataset
	err := r.db.WithContext(ctx).Preload("Uploader").Where("id = ?", id).First(&dataset).Error
	return dataset, err
}

func (r *datasetRepository) GetForOwner(ctx context.Context, id, ownerID uint) (models.Dataset, error) {
	var dataset models.Dataset
	err := r.db.WithContext(ctx).Where("id = ? AND uploaded_by = ?", id, ownerID).First(&dataset).Error
	return dataset, err
}

func (r *datasetRepository) List(ctx context.Context) ([]models.Dataset, error) {
	var datasets []models.Dataset
	err := r.db.WithContext(ctx).
		Omit("rows").
		Preload("Uploader").
		Order("uploaded_at DESC").
		Order("id DESC").
		Find(&datasets).Error
	return datasets, err
}

func (r *datasetRepository) ListCharts(ctx context.Context) ([]models.Dataset, error) {
	var datasets []models.Dataset
	err := r.db.WithContext(ctx).
		Omit("rows").
		Scopes(chartScope).
		Preload("Uploader").
		Order("created_at DESC").
		Order("id DESC").
		Find(&datasets).Error
	return datasets, err
}

func (r *datasetRepository) ListRecentByOwner(ctx context.Context, ownerID uint, limit int) ([]models.Dataset, error) {
	var datasets []models.Dataset
	err := r.db.WithContext(ctx).
		Select("id", "filename", "chart_type", "uploaded_at").
		Where("uploaded_by = ?", ownerID).
		Order("uploaded_at DESC").
		Limit(limit).
		Find(&datasets).Error
	return datasets, err
}

func (r *datasetRepository) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Dataset{}).Where("uploaded_by = ?", ownerID).Count(&count).Error
	return count, err
}

func (r *datasetRepository) DistinctChartTypesByOwner(ctx context.Context, ownerID uint) ([]string, error) {
	var types []string
	err := r.db.WithContext(ctx).
		Model(&models.Dataset{}).
		Scopes(chartScope).
		Where("uploaded_by = ?", ownerID).
		Distinct().
		Pluck("chart_type", &types).Error
	return types, err
}

func (r *datasetRepository) UpdateChartMeta(ctx context.Context, id uint, updates map[string]interface{}, log *models.UserLog) (models.Dataset, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Dataset{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if log != nil {
			return tx.Omit("User").Create(log).Error
		}
		return nil
	})
	if err != nil {
		return models.Dataset{}, err
	}

	return r.GetByID(ctx, id)
}

func (r *datasetRepository) Delete(ctx context.Context, id uint) (models.Dataset, error) {
	return r.deleteWhere(ctx, id, nil)
}

func (r *datasetRepository) DeleteChart(ctx context.Context, id uint) (models.Dataset, error) {
	return r.deleteWhere(ctx, id, chartScope)
}

func (r *datasetRepository) deleteWhere(ctx context.Context, id uint, scope func(*gorm.DB) *gorm.DB) (models.Dataset, error) {
	var dataset models.Dataset
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Omit("rows").Where("id = ?", id)
		if scope != nil {
			query = query.Scopes(scope)
		}
		if err := query.First(&dataset).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Dataset{}, dataset.ID).Error
	})
	return dataset, err
}
