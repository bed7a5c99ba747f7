package units

import (
	"github.com/google/uuid"
)

// CreateForLineItemInput commits a purchased quantity as inventory unit
// blocks. BackorderedQty is the tail that could not be covered by sellable
// stock; it becomes a separate backordered block so the on-hand portion
// ships independently. ShipmentID pre-assigns the blocks to the shipment
// planned for their location.
type CreateForLineItemInput struct {
	OrderID         uuid.UUID
	LineItemID      uuid.UUID
	VariantID       uuid.UUID
	StockLocationID *uuid.UUID
	ShipmentID      *uuid.UUID
	Quantity        int
	BackorderedQty  int
}
