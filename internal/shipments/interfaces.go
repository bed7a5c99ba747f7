package shipments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderco/stockroom-backend/internal/stock"
	"github.com/calderco/stockroom-backend/pkg/db/models"
)

// Repository defines persistence operations for shipments. Creation happens
// in the orders package when delivery is selected; this side owns the
// dispatch lifecycle.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Shipment, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// unitsEngine moves the shipment's inventory unit blocks when it leaves.
type unitsEngine interface {
	ShipByShipmentTx(ctx context.Context, tx *gorm.DB, shipmentID uuid.UUID) ([]models.InventoryUnit, error)
}

// stockEngine burns reserved counts down when goods physically leave.
type stockEngine interface {
	ConfirmShipmentTx(ctx context.Context, tx *gorm.DB, input stock.ConfirmShipmentInput) (*models.StockItem, error)
}

// stockReader resolves stock items at the shipment's location. Satisfied by
// stock.Repository.
type stockReader interface {
	WithTx(tx *gorm.DB) stock.Repository
}

// Service stages and dispatches shipments. Ready is the fulfillment-floor
// signal that every block is picked; Ship hands the goods to the carrier
// and settles stock counters in the same transaction.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Shipment, error)
	Ready(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	Ship(ctx context.Context, id uuid.UUID, tracking *string) (*models.Shipment, error)
}
