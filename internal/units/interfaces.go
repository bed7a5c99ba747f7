package units

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderco/stockroom-backend/pkg/db/models"
)

// Repository defines persistence operations for inventory unit blocks.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, unit *models.InventoryUnit) error
	CreateBatch(ctx context.Context, units []models.InventoryUnit) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryUnit, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryUnit, error)
	ListByLineItem(ctx context.Context, lineItemID uuid.UUID) ([]models.InventoryUnit, error)
	ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]models.InventoryUnit, error)
	ListBackordered(ctx context.Context, variantID, locationID uuid.UUID) ([]models.InventoryUnit, error)
	CountBackordered(ctx context.Context) (int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// Service drives the inventory unit state machine. Blocks are created when
// an order commits a line item quantity and move one way through
// on_hand -> shipped, with backordered -> on_hand as stock arrives and
// cancel available from any non-terminal state. The Tx variants run inside
// the caller's transaction; units never touch stock counters themselves,
// counter changes belong to the callers that own the surrounding
// transaction.
//
// The service also satisfies the backorder filler contract consumed by the
// stock service: ListBackordered and Fill, with Fill splitting a block when
// only part of it can be promoted.
type Service interface {
	Get(ctx context.Context, unitID uuid.UUID) (*models.InventoryUnit, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryUnit, error)
	ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]models.InventoryUnit, error)
	CountBackordered(ctx context.Context) (int64, error)

	CreateForLineItemTx(ctx context.Context, tx *gorm.DB, input CreateForLineItemInput) ([]models.InventoryUnit, error)
	FillBackorder(ctx context.Context, unitID uuid.UUID) (*models.InventoryUnit, error)
	Ship(ctx context.Context, unitID, shipmentID uuid.UUID) (*models.InventoryUnit, error)
	ShipTx(ctx context.Context, tx *gorm.DB, unitID, shipmentID uuid.UUID) (*models.InventoryUnit, error)
	ShipByShipmentTx(ctx context.Context, tx *gorm.DB, shipmentID uuid.UUID) ([]models.InventoryUnit, error)
	Cancel(ctx context.Context, unitID uuid.UUID) (*models.InventoryUnit, error)
	CancelTx(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) (*models.InventoryUnit, error)
	CancelForOrderTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]models.InventoryUnit, error)
	Return(ctx context.Context, unitID uuid.UUID) (*models.InventoryUnit, error)

	ListBackordered(ctx context.Context, tx *gorm.DB, variantID, locationID uuid.UUID) ([]models.InventoryUnit, error)
	Fill(ctx context.Context, tx *gorm.DB, unitID uuid.UUID, quantity int) error
}
