package router

import (
	"github.com/calderco/stockroom-backend/internal/analytics/types"
	"github.com/calderco/stockroom-backend/pkg/outbox/payloads"
)

func buildUnitShippedRow(envelope types.Envelope, payload any) (types.StockEventRow, error) {
	event, ok := payload.(*payloads.UnitShippedEvent)
	if !ok {
		return types.StockEventRow{}, invalidPayload(envelope)
	}
	row, err := baseStockRow(envelope)
	if err != nil {
		return types.StockEventRow{}, err
	}
	row.VariantID = uuidPtr(event.VariantID)
	row.OrderID = uuidPtr(event.OrderID)
	row.Quantity = int64Ptr(int64(event.Quantity))
	return row, nil
}

func buildUnitCanceledRow(envelope types.Envelope, payload any) (types.StockEventRow, error) {
	event, ok := payload.(*payloads.UnitCanceledEvent)
	if !ok {
		return types.StockEventRow{}, invalidPayload(envelope)
	}
	row, err := baseStockRow(envelope)
	if err != nil {
		return types.StockEventRow{}, err
	}
	row.VariantID = uuidPtr(event.VariantID)
	row.StockLocationID = optionalUUIDPtr(event.StockLocationID)
	row.OrderID = uuidPtr(event.OrderID)
	row.Quantity = int64Ptr(int64(event.Quantity))
	return row, nil
}

func buildUnitReturnedRow(envelope types.Envelope, payload any) (types.StockEventRow, error) {
	event, ok := payload.(*payloads.UnitReturnedEvent)
	if !ok {
		return types.StockEventRow{}, invalidPayload(envelope)
	}
	row, err := baseStockRow(envelope)
	if err != nil {
		return types.StockEventRow{}, err
	}
	row.VariantID = uuidPtr(event.VariantID)
	row.OrderID = uuidPtr(event.OrderID)
	row.Quantity = int64Ptr(int64(event.Quantity))
	return row, nil
}

func buildUnitBackorderFilledRow(envelope types.Envelope, payload any) (types.StockEventRow, error) {
	event, ok := payload.(*payloads.UnitBackorderFilledEvent)
	if !ok {
		return types.StockEventRow{}, invalidPayload(envelope)
	}
	row, err := baseStockRow(envelope)
	if err != nil {
		return types.StockEventRow{}, err
	}
	row.VariantID = uuidPtr(event.VariantID)
	row.OrderID = uuidPtr(event.OrderID)
	row.Quantity = int64Ptr(int64(event.Quantity))
	return row, nil
}
