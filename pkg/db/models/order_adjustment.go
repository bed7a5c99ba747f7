package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderAdjustment applies a labeled credit or charge to an order total.
type OrderAdjustment struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	Label       string    `gorm:"column:label;not null"`
	AmountCents int       `gorm:"column:amount_cents;not null"`
	Eligible    bool      `gorm:"column:eligible;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
