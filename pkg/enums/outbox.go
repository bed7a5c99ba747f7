package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type_enum enum in Postgres.
type OutboxAggregateType string

const (
	AggregateStockItem     OutboxAggregateType = "stock_item"
	AggregateStockLocation OutboxAggregateType = "stock_location"
	AggregateStockTransfer OutboxAggregateType = "stock_transfer"
	AggregateInventoryUnit OutboxAggregateType = "inventory_unit"
	AggregateOrder         OutboxAggregateType = "order"
	AggregateShipment      OutboxAggregateType = "shipment"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateStockItem,
	AggregateStockLocation,
	AggregateStockTransfer,
	AggregateInventoryUnit,
	AggregateOrder,
	AggregateShipment,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type_enum enum in Postgres.
type OutboxEventType string

const (
	EventStockAdjusted      OutboxEventType = "stock_adjusted"
	EventStockReserved      OutboxEventType = "stock_reserved"
	EventStockReleased      OutboxEventType = "stock_released"
	EventBackorderProcessed OutboxEventType = "backorder_processed"

	EventLocationCreated     OutboxEventType = "location_created"
	EventLocationDeactivated OutboxEventType = "location_deactivated"

	EventTransferCreated         OutboxEventType = "transfer_created"
	EventTransferCompleted       OutboxEventType = "transfer_completed"
	EventTransferPartiallyFailed OutboxEventType = "transfer_partially_failed"

	EventUnitShipped         OutboxEventType = "unit_shipped"
	EventUnitCanceled        OutboxEventType = "unit_canceled"
	EventUnitReturned        OutboxEventType = "unit_returned"
	EventUnitBackorderFilled OutboxEventType = "unit_backorder_filled"

	EventOrderStateChanged OutboxEventType = "order_state_changed"
	EventOrderCompleted    OutboxEventType = "order_completed"
	EventOrderCanceled     OutboxEventType = "order_canceled"
	EventLineItemAdded     OutboxEventType = "line_item_added"
	EventLineItemRemoved   OutboxEventType = "line_item_removed"
	EventPaymentRecorded   OutboxEventType = "payment_recorded"
	EventPaymentCompleted  OutboxEventType = "payment_completed"

	EventShipmentReady   OutboxEventType = "shipment_ready"
	EventShipmentShipped OutboxEventType = "shipment_shipped"
)

var validOutboxEventTypes = []OutboxEventType{
	EventStockAdjusted,
	EventStockReserved,
	EventStockReleased,
	EventBackorderProcessed,
	EventLocationCreated,
	EventLocationDeactivated,
	EventTransferCreated,
	EventTransferCompleted,
	EventTransferPartiallyFailed,
	EventUnitShipped,
	EventUnitCanceled,
	EventUnitReturned,
	EventUnitBackorderFilled,
	EventOrderStateChanged,
	EventOrderCompleted,
	EventOrderCanceled,
	EventLineItemAdded,
	EventLineItemRemoved,
	EventPaymentRecorded,
	EventPaymentCompleted,
	EventShipmentReady,
	EventShipmentShipped,
}

// OutboxEventTypes returns every event type the engine emits.
func OutboxEventTypes() []OutboxEventType {
	out := make([]OutboxEventType, len(validOutboxEventTypes))
	copy(out, validOutboxEventTypes)
	return out
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
