package router

import (
	"github.com/calderco/stockroom-backend/internal/analytics/types"
	"github.com/calderco/stockroom-backend/pkg/outbox/payloads"
)

func buildStockAdjustedRow(envelope types.Envelope, payload any) (types.StockEventRow, error) {
	event, ok := payload.(*payloads.StockAdjustedEvent)
	if !ok {
		return types.StockEventRow{}, invalidPayload(envelope)
	}
	row, err := baseStockRow(envelope)
	if err != nil {
		return types.StockEventRow{}, err
	}
	row.StockItemID = uuidPtr(event.StockItemID)
	row.VariantID = uuidPtr(event.VariantID)
	row.StockLocationID = uuidPtr(event.StockLocationID)
	row.Quantity = int64Ptr(int64(event.QuantityDelta))
	row.QtyOnHand = int64Ptr(int64(event.QtyOnHand))
	row.QtyReserved = int64Ptr(int64(event.QtyReserved))
	row.Originator = stringPtr(string(event.Originator))
	row.Reason = stringPtr(event.Reason)
	return row, nil
}

func buildStockReservedRow(envelope types.Envelope, payload any) (types.StockEventRow, error) {
	event, ok := payload.(*payloads.StockReservedEvent)
	if !ok {
		return types.StockEventRow{}, invalidPayload(envelope)
	}
	row, err := baseStockRow(envelope)
	if err != nil {
		return types.StockEventRow{}, err
	}
	row.StockItemID = uuidPtr(event.StockItemID)
	row.VariantID = uuidPtr(event.VariantID)
	row.StockLocationID = uuidPtr(event.StockLocationID)
	row.Quantity = int64Ptr(int64(event.Quantity))
	row.QtyReserved = int64Ptr(int64(event.QtyReserved))
	row.Backordered = int64Ptr(int64(event.Backordered))
	return row, nil
}

func buildStockReleasedRow(envelope types.Envelope, payload any) (types.StockEventRow, error) {
	event, ok := payload.(*payloads.StockReleasedEvent)
	if !ok {
		return types.StockEventRow{}, invalidPayload(envelope)
	}
	row, err := baseStockRow(envelope)
	if err != nil {
		return types.StockEventRow{}, err
	}
	row.StockItemID = uuidPtr(event.StockItemID)
	row.VariantID = uuidPtr(event.VariantID)
	row.StockLocationID = uuidPtr(event.StockLocationID)
	row.Quantity = int64Ptr(int64(event.Quantity))
	row.QtyReserved = int64Ptr(int64(event.QtyReserved))
	return row, nil
}

func buildBackorderProcessedRow(envelope types.Envelope, payload any) (types.StockEventRow, error) {
	event, ok := payload.(*payloads.BackorderProcessedEvent)
	if !ok {
		return types.StockEventRow{}, invalidPayload(envelope)
	}
	row, err := baseStockRow(envelope)
	if err != nil {
		return types.StockEventRow{}, err
	}
	row.StockItemID = uuidPtr(event.StockItemID)
	row.VariantID = uuidPtr(event.VariantID)
	row.StockLocationID = uuidPtr(event.StockLocationID)
	row.Quantity = int64Ptr(int64(event.FilledQuantity))
	row.Backordered = int64Ptr(int64(event.RemainingBackordered))
	return row, nil
}
