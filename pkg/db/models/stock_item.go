package models

import (
	"time"

	"github.com/google/uuid"
)

// StockItem tracks on-hand/reserved counts for a variant at one location.
// LockVersion guards concurrent quantity updates via compare-and-swap.
type StockItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariantID       uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	StockLocationID uuid.UUID `gorm:"column:stock_location_id;type:uuid;not null"`
	QtyOnHand       int       `gorm:"column:qty_on_hand;not null;default:0"`
	QtyReserved     int       `gorm:"column:qty_reserved;not null;default:0"`
	Backorderable   bool      `gorm:"column:backorderable;not null;default:false"`
	LockVersion     int       `gorm:"column:lock_version;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Available returns the sellable count: on hand minus reserved.
func (s StockItem) Available() int {
	return s.QtyOnHand - s.QtyReserved
}
