package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/pkg/enums"
)

// StockAdjustedEvent reports a counted change to on-hand stock.
type StockAdjustedEvent struct {
	StockItemID     uuid.UUID                `json:"stock_item_id"`
	VariantID       uuid.UUID                `json:"variant_id"`
	StockLocationID uuid.UUID                `json:"stock_location_id"`
	QuantityDelta   int                      `json:"quantity_delta"`
	QtyOnHand       int                      `json:"qty_on_hand"`
	QtyReserved     int                      `json:"qty_reserved"`
	Originator      enums.MovementOriginator `json:"originator"`
	Reason          string                   `json:"reason,omitempty"`
}

// StockReservedEvent is emitted when sellable stock is promised to an order.
type StockReservedEvent struct {
	StockItemID     uuid.UUID `json:"stock_item_id"`
	VariantID       uuid.UUID `json:"variant_id"`
	StockLocationID uuid.UUID `json:"stock_location_id"`
	Quantity        int       `json:"quantity"`
	QtyReserved     int       `json:"qty_reserved"`
	Backordered     int       `json:"backordered,omitempty"`
}

// StockReleasedEvent is emitted when a reservation is returned to sellable stock.
type StockReleasedEvent struct {
	StockItemID     uuid.UUID `json:"stock_item_id"`
	VariantID       uuid.UUID `json:"variant_id"`
	StockLocationID uuid.UUID `json:"stock_location_id"`
	Quantity        int       `json:"quantity"`
	QtyReserved     int       `json:"qty_reserved"`
}

// BackorderProcessedEvent reports backordered demand filled by arriving stock.
type BackorderProcessedEvent struct {
	StockItemID          uuid.UUID `json:"stock_item_id"`
	VariantID            uuid.UUID `json:"variant_id"`
	StockLocationID      uuid.UUID `json:"stock_location_id"`
	FilledQuantity       int       `json:"filled_quantity"`
	RemainingBackordered int       `json:"remaining_backordered"`
}

// LocationCreatedEvent announces a new stock location.
type LocationCreatedEvent struct {
	StockLocationID uuid.UUID `json:"stock_location_id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	IsDefault       bool      `json:"is_default"`
}

// LocationDeactivatedEvent announces a soft-deleted stock location.
type LocationDeactivatedEvent struct {
	StockLocationID uuid.UUID `json:"stock_location_id"`
	Code            string    `json:"code"`
	DeactivatedAt   time.Time `json:"deactivated_at"`
}

// TransferCreatedEvent records a transfer accepted for execution. A nil
// source identifies a supplier receipt.
type TransferCreatedEvent struct {
	TransferID            uuid.UUID  `json:"transfer_id"`
	Number                string     `json:"number"`
	SourceLocationID      *uuid.UUID `json:"source_location_id,omitempty"`
	DestinationLocationID uuid.UUID  `json:"destination_location_id"`
	LineCount             int        `json:"line_count"`
}

// TransferCompletedEvent confirms all lines moved; carries totals for
// consumers that only care about finality.
type TransferCompletedEvent struct {
	TransferID            uuid.UUID  `json:"transfer_id"`
	Number                string     `json:"number"`
	SourceLocationID      *uuid.UUID `json:"source_location_id,omitempty"`
	DestinationLocationID uuid.UUID  `json:"destination_location_id"`
	TotalQuantity         int        `json:"total_quantity"`
}

// TransferLineFailure describes one variant that blocked a transfer.
type TransferLineFailure struct {
	VariantID uuid.UUID `json:"variant_id"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
	Reason    string    `json:"reason"`
}

// TransferPartiallyFailedEvent reports an execution attempt whose legs were
// rolled back. The transfer row survives for another attempt; the payload
// records what blocked this one.
type TransferPartiallyFailedEvent struct {
	TransferID            uuid.UUID             `json:"transfer_id"`
	Number                string                `json:"number"`
	SourceLocationID      *uuid.UUID            `json:"source_location_id,omitempty"`
	DestinationLocationID uuid.UUID             `json:"destination_location_id"`
	Reference             string                `json:"reference,omitempty"`
	Failures              []TransferLineFailure `json:"failures"`
}

// UnitShippedEvent reports an inventory unit block leaving the building.
type UnitShippedEvent struct {
	UnitID     uuid.UUID  `json:"unit_id"`
	OrderID    uuid.UUID  `json:"order_id"`
	LineItemID uuid.UUID  `json:"line_item_id"`
	VariantID  uuid.UUID  `json:"variant_id"`
	ShipmentID *uuid.UUID `json:"shipment_id,omitempty"`
	Quantity   int        `json:"quantity"`
}

// UnitCanceledEvent reports an inventory unit block voided before shipping.
// The stock location identifies where the block's reservation was held so
// consumers can return it to sellable stock.
type UnitCanceledEvent struct {
	UnitID          uuid.UUID                `json:"unit_id"`
	OrderID         uuid.UUID                `json:"order_id"`
	VariantID       uuid.UUID                `json:"variant_id"`
	StockLocationID *uuid.UUID               `json:"stock_location_id,omitempty"`
	Quantity        int                      `json:"quantity"`
	PriorState      enums.InventoryUnitState `json:"prior_state"`
}

// UnitReturnedEvent reports shipped units coming back.
type UnitReturnedEvent struct {
	UnitID    uuid.UUID `json:"unit_id"`
	OrderID   uuid.UUID `json:"order_id"`
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int       `json:"quantity"`
}

// UnitBackorderFilledEvent reports a backordered block promoted to on-hand.
type UnitBackorderFilledEvent struct {
	UnitID    uuid.UUID `json:"unit_id"`
	OrderID   uuid.UUID `json:"order_id"`
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int       `json:"quantity"`
}

// OrderStateChangedEvent records each checkout progression step.
type OrderStateChangedEvent struct {
	OrderID   uuid.UUID        `json:"order_id"`
	Number    string           `json:"number"`
	FromState enums.OrderState `json:"from_state"`
	ToState   enums.OrderState `json:"to_state"`
}

// OrderCompletedEvent carries the summary downstream systems bill against.
type OrderCompletedEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	Number        string    `json:"number"`
	Email         string    `json:"email,omitempty"`
	TotalCents    int       `json:"total_cents"`
	LineItemCount int       `json:"line_item_count"`
	CompletedAt   time.Time `json:"completed_at"`
}

// OrderCanceledEvent is emitted when an order is voided.
type OrderCanceledEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	Number     string    `json:"number"`
	CanceledAt time.Time `json:"canceled_at"`
	Reason     string    `json:"reason,omitempty"`
}

// LineItemAddedEvent reports a cart mutation.
type LineItemAddedEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	LineItemID     uuid.UUID `json:"line_item_id"`
	VariantID      uuid.UUID `json:"variant_id"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unit_price_cents"`
}

// LineItemRemovedEvent reports a cart mutation.
type LineItemRemovedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	LineItemID uuid.UUID `json:"line_item_id"`
	VariantID  uuid.UUID `json:"variant_id"`
	Quantity   int       `json:"quantity"`
}

// PaymentRecordedEvent reports money promised against an order.
type PaymentRecordedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	PaymentID   uuid.UUID `json:"payment_id"`
	AmountCents int       `json:"amount_cents"`
}

// PaymentCompletedEvent reports money captured against an order.
type PaymentCompletedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	PaymentID   uuid.UUID `json:"payment_id"`
	AmountCents int       `json:"amount_cents"`
	CompletedAt time.Time `json:"completed_at"`
}

// ShipmentReadyEvent reports a shipment staged for dispatch.
type ShipmentReadyEvent struct {
	ShipmentID uuid.UUID `json:"shipment_id"`
	OrderID    uuid.UUID `json:"order_id"`
	Number     string    `json:"number"`
}

// ShipmentShippedEvent reports a shipment handed to the carrier.
type ShipmentShippedEvent struct {
	ShipmentID uuid.UUID `json:"shipment_id"`
	OrderID    uuid.UUID `json:"order_id"`
	Number     string    `json:"number"`
	Tracking   string    `json:"tracking,omitempty"`
	ShippedAt  time.Time `json:"shipped_at"`
}
