package orders

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

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Shipments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Adjustments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("LineItems")
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var page []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&page).Error; err != nil {
		return nil, nil, err
	}

	if len(page) > normalized {
		page = page[:normalized]
		last := page[len(page)-1]
		return page, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return page, nil, nil
}

// FindCartsBefore returns orders still parked at the cart step whose last
// touch predates the cutoff. Ordered oldest first so expiry drains the
// longest-abandoned carts ahead of a partial failure.
func (r *repository) FindCartsBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var stale []models.Order
	err := r.db.WithContext(ctx).
		Where("state = ? AND updated_at < ?", enums.OrderStateCart, cutoff).
		Order("updated_at ASC").
		Find(&stale).Error
	if err != nil {
		return nil, err
	}
	return stale, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CreateLineItem(ctx context.Context, item *models.LineItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) UpdateLineItem(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.LineItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteLineItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.LineItem{}).Error
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) UpdatePayment(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CreateAdjustment(ctx context.Context, adjustment *models.OrderAdjustment) error {
	return r.db.WithContext(ctx).Create(adjustment).Error
}

func (r *repository) CreateShipments(ctx context.Context, shipments []models.Shipment) error {
	if len(shipments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&shipments).Error
}

// CancelShipments voids every shipment of the order still waiting to leave.
// Shipped rows keep their state; the goods are already gone.
func (r *repository) CancelShipments(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("order_id = ? AND state IN ?", orderID, []enums.ShipmentState{
			enums.ShipmentStatePending,
			enums.ShipmentStateReady,
		}).
		Update("state", enums.ShipmentStateCanceled).Error
}
