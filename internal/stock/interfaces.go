package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	"github.com/calderco/stockroom-backend/pkg/pagination"
)

// Repository defines persistence operations for stock items and movements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.StockItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.StockItem, error)
	FindByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*models.StockItem, error)
	ListByLocation(ctx context.Context, locationID uuid.UUID) ([]models.StockItem, error)
	ListAll(ctx context.Context) ([]models.StockItem, error)
	UpdateQuantities(ctx context.Context, item *models.StockItem, expectedVersion int) (bool, error)
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	ListMovements(ctx context.Context, stockItemID uuid.UUID, params pagination.Params) ([]models.StockMovement, *pagination.Cursor, error)
	SumMovements(ctx context.Context, stockItemID uuid.UUID, originators []enums.MovementOriginator) (int64, error)
	CountMovementsForOriginator(ctx context.Context, originatorID uuid.UUID, originators []enums.MovementOriginator) (int64, error)
	CountReservedAtLocation(ctx context.Context, locationID uuid.UUID) (int64, error)
}

// BackorderFiller promotes backordered inventory unit blocks to on-hand.
// Implementations split a block when only part of it can be filled.
type BackorderFiller interface {
	ListBackordered(ctx context.Context, tx *gorm.DB, variantID, locationID uuid.UUID) ([]models.InventoryUnit, error)
	Fill(ctx context.Context, tx *gorm.DB, unitID uuid.UUID, quantity int) error
}

// Service exposes guarded mutations over stock item counters. Every write
// is compare-and-swapped against the item's lock version and records a
// stock movement in the same transaction. The Tx variants run one
// optimistic attempt inside the caller's transaction; the plain forms own
// their transaction and retry version conflicts a bounded number of times.
type Service interface {
	ItemOrCreate(ctx context.Context, input ItemOrCreateInput) (*models.StockItem, error)
	Get(ctx context.Context, stockItemID uuid.UUID) (*models.StockItem, error)
	GetByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*models.StockItem, error)
	Adjust(ctx context.Context, input AdjustInput) (*models.StockItem, error)
	Reserve(ctx context.Context, input ReserveInput) (*models.StockItem, error)
	Release(ctx context.Context, input ReleaseInput) (*models.StockItem, error)
	ConfirmShipment(ctx context.Context, input ConfirmShipmentInput) (*models.StockItem, error)
	ProcessBackorders(ctx context.Context, stockItemID uuid.UUID) (*BackorderFillSummary, error)
	ListMovements(ctx context.Context, stockItemID uuid.UUID, params pagination.Params) ([]models.StockMovement, *pagination.Cursor, error)

	ItemOrCreateTx(ctx context.Context, tx *gorm.DB, input ItemOrCreateInput) (*models.StockItem, error)
	AdjustTx(ctx context.Context, tx *gorm.DB, input AdjustInput) (*models.StockItem, error)
	ReserveTx(ctx context.Context, tx *gorm.DB, input ReserveInput) (*models.StockItem, error)
	ReleaseTx(ctx context.Context, tx *gorm.DB, input ReleaseInput) (*models.StockItem, error)
	ConfirmShipmentTx(ctx context.Context, tx *gorm.DB, input ConfirmShipmentInput) (*models.StockItem, error)
}
