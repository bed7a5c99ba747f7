package router

import (
	"github.com/calderco/stockroom-backend/internal/analytics/types"
	"github.com/calderco/stockroom-backend/pkg/outbox/payloads"
)

func buildTransferCreatedRow(envelope types.Envelope, payload any) (types.StockEventRow, error) {
	event, ok := payload.(*payloads.TransferCreatedEvent)
	if !ok {
		return types.StockEventRow{}, invalidPayload(envelope)
	}
	row, err := baseStockRow(envelope)
	if err != nil {
		return types.StockEventRow{}, err
	}
	row.SourceLocationID = optionalUUIDPtr(event.SourceLocationID)
	row.DestinationLocationID = uuidPtr(event.DestinationLocationID)
	return row, nil
}

func buildTransferCompletedRow(envelope types.Envelope, payload any) (types.StockEventRow, error) {
	event, ok := payload.(*payloads.TransferCompletedEvent)
	if !ok {
		return types.StockEventRow{}, invalidPayload(envelope)
	}
	row, err := baseStockRow(envelope)
	if err != nil {
		return types.StockEventRow{}, err
	}
	row.SourceLocationID = optionalUUIDPtr(event.SourceLocationID)
	row.DestinationLocationID = uuidPtr(event.DestinationLocationID)
	row.Quantity = int64Ptr(int64(event.TotalQuantity))
	return row, nil
}

func buildTransferPartiallyFailedRow(envelope types.Envelope, payload any) (types.StockEventRow, error) {
	event, ok := payload.(*payloads.TransferPartiallyFailedEvent)
	if !ok {
		return types.StockEventRow{}, invalidPayload(envelope)
	}
	row, err := baseStockRow(envelope)
	if err != nil {
		return types.StockEventRow{}, err
	}
	row.SourceLocationID = optionalUUIDPtr(event.SourceLocationID)
	row.DestinationLocationID = uuidPtr(event.DestinationLocationID)
	return row, nil
}
