package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/pkg/enums"
)

// Payment tracks money recorded against an order.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null"`
	AmountCents   int                 `gorm:"column:amount_cents;not null"`
	Status        enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	Reference     *string             `gorm:"column:reference"`
	FailureReason *string             `gorm:"column:failure_reason"`
	CompletedAt   *time.Time          `gorm:"column:completed_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
