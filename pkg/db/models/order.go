package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/pkg/enums"
	"github.com/calderco/stockroom-backend/pkg/types"
)

// Order walks the checkout progression from cart through completion.
type Order struct {
	ID                   uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Number               string            `gorm:"column:number;not null"`
	State                enums.OrderState  `gorm:"column:state;type:order_state;not null;default:'cart'"`
	Currency             enums.Currency    `gorm:"column:currency;type:text;not null;default:'USD'"`
	Email                *string           `gorm:"column:email"`
	ShipAddress          *types.Address    `gorm:"column:ship_address;type:address_t"`
	BillAddress          *types.Address    `gorm:"column:bill_address;type:address_t"`
	ItemTotalCents       int               `gorm:"column:item_total_cents;not null;default:0"`
	ShipmentTotalCents   int               `gorm:"column:shipment_total_cents;not null;default:0"`
	AdjustmentTotalCents int               `gorm:"column:adjustment_total_cents;not null;default:0"`
	PaymentTotalCents    int               `gorm:"column:payment_total_cents;not null;default:0"`
	TotalCents           int               `gorm:"column:total_cents;not null;default:0"`
	SpecialInstructions  *string           `gorm:"column:special_instructions"`
	CompletedAt          *time.Time        `gorm:"column:completed_at"`
	CanceledAt           *time.Time        `gorm:"column:canceled_at"`
	LineItems            []LineItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments             []Payment         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Shipments            []Shipment        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Adjustments          []OrderAdjustment `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// Digital reports whether every line item ships electronically. Digital
// orders skip the delivery step.
func (o Order) Digital() bool {
	if len(o.LineItems) == 0 {
		return false
	}
	for _, item := range o.LineItems {
		if !item.Digital {
			return false
		}
	}
	return true
}
