package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	"github.com/calderco/stockroom-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.StockItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StockItem, error) {
	var item models.StockItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*models.StockItem, error) {
	var item models.StockItem
	if err := r.db.WithContext(ctx).
		First(&item, "variant_id = ? AND stock_location_id = ?", variantID, locationID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListByLocation(ctx context.Context, locationID uuid.UUID) ([]models.StockItem, error) {
	var items []models.StockItem
	if err := r.db.WithContext(ctx).
		Where("stock_location_id = ?", locationID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.StockItem, error) {
	var items []models.StockItem
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateQuantities writes the item's counters conditioned on the lock
// version observed at read time. It reports false without error when
// another writer got there first; callers decide whether to retry.
func (r *repository) UpdateQuantities(ctx context.Context, item *models.StockItem, expectedVersion int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.StockItem{}).
		Where("id = ? AND lock_version = ?", item.ID, expectedVersion).
		Updates(map[string]any{
			"qty_on_hand":  item.QtyOnHand,
			"qty_reserved": item.QtyReserved,
			"lock_version": gorm.Expr("lock_version + 1"),
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	item.LockVersion = expectedVersion + 1
	return true, nil
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, stockItemID uuid.UUID, params pagination.Params) ([]models.StockMovement, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.StockMovement{}).
		Where("stock_item_id = ?", stockItemID)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var movements []models.StockMovement
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&movements).Error; err != nil {
		return nil, nil, err
	}

	if len(movements) > normalized {
		movements = movements[:normalized]
		last := movements[len(movements)-1]
		return movements, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return movements, nil, nil
}

// SumMovements totals the signed deltas for the given originators, or for
// every originator when none are passed. The audit job reconciles counters
// against these sums.
func (r *repository) SumMovements(ctx context.Context, stockItemID uuid.UUID, originators []enums.MovementOriginator) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockMovement{}).
		Select("COALESCE(SUM(quantity_delta), 0) AS total").
		Where("stock_item_id = ?", stockItemID)
	if len(originators) > 0 {
		query = query.Where("originator IN ?", originators)
	}

	var row struct {
		Total int64
	}
	if err := query.Scan(&row).Error; err != nil {
		return 0, err
	}
	return row.Total, nil
}

// CountReservedAtLocation counts items still holding reservations at a
// location; the location delete guard refuses while this is non-zero.
func (r *repository) CountReservedAtLocation(ctx context.Context, locationID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.StockItem{}).
		Where("stock_location_id = ? AND qty_reserved > 0", locationID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountMovementsForOriginator reports how many movements a document already
// produced. Transfers use it as their executed-once guard.
func (r *repository) CountMovementsForOriginator(ctx context.Context, originatorID uuid.UUID, originators []enums.MovementOriginator) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockMovement{}).
		Where("originator_id = ?", originatorID)
	if len(originators) > 0 {
		query = query.Where("originator IN ?", originators)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
