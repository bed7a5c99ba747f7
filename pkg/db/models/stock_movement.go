package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/pkg/enums"
)

// StockMovement records an immutable quantity change applied to a stock item.
// QuantityDelta is signed against the counter the originator touches:
// adjustments, transfers, receipts and shipments move qty_on_hand, while
// reservations and releases move qty_reserved. A shipment movement also
// consumes the matching reservation, so reserved reconciles from the
// reservation, release and shipment deltas together. OriginatorID points
// back at the transfer, shipment or order that caused the change.
type StockMovement struct {
	ID            uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StockItemID   uuid.UUID                `gorm:"column:stock_item_id;type:uuid;not null"`
	QuantityDelta int                      `gorm:"column:quantity_delta;not null"`
	Originator    enums.MovementOriginator `gorm:"column:originator;type:movement_originator;not null"`
	OriginatorID  *uuid.UUID               `gorm:"column:originator_id;type:uuid"`
	Reason        *string                  `gorm:"column:reason"`
	Details       json.RawMessage          `gorm:"column:details;type:jsonb"`
	CreatedAt     time.Time                `gorm:"column:created_at;autoCreateTime"`
}

// AffectsOnHand reports whether the movement's delta applies to the
// physical on-hand counter rather than the reservation counter. Shipment
// movements consume both counters and count on each side.
func (m StockMovement) AffectsOnHand() bool {
	switch m.Originator {
	case enums.MovementOriginatorReservation, enums.MovementOriginatorRelease:
		return false
	default:
		return true
	}
}
