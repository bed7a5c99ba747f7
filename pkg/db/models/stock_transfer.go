package models

import (
	"time"

	"github.com/google/uuid"
)

// StockTransfer is a request to move stock between two locations. A nil
// source marks a supplier receipt into the destination. The row is created
// first and executed once; execution is detected through the movements
// tagged with the transfer id, not a status column.
type StockTransfer struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Number                string              `gorm:"column:number;not null"`
	SourceLocationID      *uuid.UUID          `gorm:"column:source_location_id;type:uuid"`
	DestinationLocationID uuid.UUID           `gorm:"column:destination_location_id;type:uuid;not null"`
	Reference             *string             `gorm:"column:reference"`
	Lines                 []StockTransferLine `gorm:"foreignKey:StockTransferID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// Receipt reports whether the transfer is an external supplier receipt
// rather than a move between two owned locations.
func (t *StockTransfer) Receipt() bool {
	return t.SourceLocationID == nil
}

// StockTransferLine captures one variant/quantity pair within a transfer.
type StockTransferLine struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StockTransferID uuid.UUID `gorm:"column:stock_transfer_id;type:uuid;not null"`
	VariantID       uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	Quantity        int       `gorm:"column:quantity;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
