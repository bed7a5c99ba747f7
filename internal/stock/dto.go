package stock

import (
	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/pkg/enums"
)

// ItemOrCreateInput resolves the tracked item for a variant at a location,
// creating an empty one on first use.
type ItemOrCreateInput struct {
	VariantID       uuid.UUID
	StockLocationID uuid.UUID
	Backorderable   bool
}

// AdjustInput changes on-hand stock by a signed delta. Originator defaults
// to a manual adjustment; transfers and receipts set their own kind plus
// the id of the document that caused the change.
type AdjustInput struct {
	StockItemID   uuid.UUID
	QuantityDelta int
	Originator    enums.MovementOriginator
	OriginatorID  *uuid.UUID
	Reason        string
}

// ReserveInput earmarks sellable stock against an order.
type ReserveInput struct {
	StockItemID  uuid.UUID
	Quantity     int
	OriginatorID *uuid.UUID
	Reason       string
}

// ReleaseInput returns reserved stock to the sellable pool.
type ReleaseInput struct {
	StockItemID  uuid.UUID
	Quantity     int
	OriginatorID *uuid.UUID
	Reason       string
}

// ConfirmShipmentInput consumes reserved stock that physically left the
// building, decrementing on-hand and reserved together.
type ConfirmShipmentInput struct {
	StockItemID  uuid.UUID
	Quantity     int
	OriginatorID *uuid.UUID
	Reason       string
}

// BackorderFillSummary reports the outcome of one backorder processing pass.
type BackorderFillSummary struct {
	StockItemID          uuid.UUID `json:"stock_item_id"`
	VariantID            uuid.UUID `json:"variant_id"`
	StockLocationID      uuid.UUID `json:"stock_location_id"`
	FilledQuantity       int       `json:"filled_quantity"`
	FilledBlocks         int       `json:"filled_blocks"`
	RemainingBackordered int       `json:"remaining_backordered"`
}
