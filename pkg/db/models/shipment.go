package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/pkg/enums"
)

// Shipment groups inventory units dispatched together from one location.
type Shipment struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID           `gorm:"column:order_id;type:uuid;not null"`
	Number          string              `gorm:"column:number;not null"`
	StockLocationID uuid.UUID           `gorm:"column:stock_location_id;type:uuid;not null"`
	State           enums.ShipmentState `gorm:"column:state;type:shipment_state;not null;default:'pending'"`
	Tracking        *string             `gorm:"column:tracking"`
	CostCents       int                 `gorm:"column:cost_cents;not null;default:0"`
	ShippedAt       *time.Time          `gorm:"column:shipped_at"`
	Units           []InventoryUnit     `gorm:"foreignKey:ShipmentID"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
