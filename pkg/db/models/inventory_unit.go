package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/pkg/enums"
)

// InventoryUnit tracks a block of units promised to an order line item.
// Quantity groups identical units into one row; blocks split when part of
// a line item backorders.
type InventoryUnit struct {
	ID              uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID                `gorm:"column:order_id;type:uuid;not null"`
	LineItemID      uuid.UUID                `gorm:"column:line_item_id;type:uuid;not null"`
	VariantID       uuid.UUID                `gorm:"column:variant_id;type:uuid;not null"`
	ShipmentID      *uuid.UUID               `gorm:"column:shipment_id;type:uuid"`
	StockLocationID *uuid.UUID               `gorm:"column:stock_location_id;type:uuid"`
	State           enums.InventoryUnitState `gorm:"column:state;type:inventory_unit_state;not null;default:'on_hand'"`
	Quantity        int                      `gorm:"column:quantity;not null;default:1"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
