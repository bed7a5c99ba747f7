package models

import (
	"time"

	"github.com/google/uuid"
)

// StoreLink connects a stock location to an external storefront it fulfills.
type StoreLink struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StockLocationID uuid.UUID `gorm:"column:stock_location_id;type:uuid;not null"`
	StoreID         uuid.UUID `gorm:"column:store_id;type:uuid;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
