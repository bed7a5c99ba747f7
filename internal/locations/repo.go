package locations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderco/stockroom-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a stock locations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, location *models.StockLocation) error {
	return r.db.WithContext(ctx).Create(location).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StockLocation, error) {
	var location models.StockLocation
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&location).Error
	if err != nil {
		return nil, err
	}
	return &location, nil
}

// FindByCode resolves an active location by its code. Deleted rows keep
// their code but fall out of the lookup so the code can be reused.
func (r *repository) FindByCode(ctx context.Context, code string) (*models.StockLocation, error) {
	var location models.StockLocation
	err := r.db.WithContext(ctx).
		Where("code = ? AND deleted_at IS NULL", code).
		First(&location).Error
	if err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *repository) List(ctx context.Context, includeDeleted bool) ([]models.StockLocation, error) {
	query := r.db.WithContext(ctx).Order("created_at ASC")
	if !includeDeleted {
		query = query.Where("deleted_at IS NULL")
	}
	var locations []models.StockLocation
	if err := query.Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

func (r *repository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StockLocation{}).
		Where("deleted_at IS NULL").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) Update(ctx context.Context, location *models.StockLocation) error {
	return r.db.WithContext(ctx).Save(location).Error
}

func (r *repository) ClearDefault(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&models.StockLocation{}).
		Where("is_default = ? AND deleted_at IS NULL", true).
		Update("is_default", false).Error
}

func (r *repository) SetDeletedAt(ctx context.Context, id uuid.UUID, deletedAt *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.StockLocation{}).
		Where("id = ?", id).
		Update("deleted_at", deletedAt).Error
}

func (r *repository) CreateStoreLink(ctx context.Context, link *models.StoreLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *repository) FindStoreLink(ctx context.Context, locationID, storeID uuid.UUID) (*models.StoreLink, error) {
	var link models.StoreLink
	err := r.db.WithContext(ctx).
		Where("stock_location_id = ? AND store_id = ?", locationID, storeID).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *repository) DeleteStoreLink(ctx context.Context, locationID, storeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("stock_location_id = ? AND store_id = ?", locationID, storeID).
		Delete(&models.StoreLink{}).Error
}

func (r *repository) ListStoreLinks(ctx context.Context, locationID uuid.UUID) ([]models.StoreLink, error) {
	var links []models.StoreLink
	err := r.db.WithContext(ctx).
		Where("stock_location_id = ?", locationID).
		Order("created_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}
