package router

import (
	"github.com/calderco/stockroom-backend/internal/analytics/types"
	"github.com/calderco/stockroom-backend/pkg/outbox/payloads"
)

func buildLocationCreatedRow(envelope types.Envelope, payload any) (types.StockEventRow, error) {
	event, ok := payload.(*payloads.LocationCreatedEvent)
	if !ok {
		return types.StockEventRow{}, invalidPayload(envelope)
	}
	row, err := baseStockRow(envelope)
	if err != nil {
		return types.StockEventRow{}, err
	}
	row.StockLocationID = uuidPtr(event.StockLocationID)
	return row, nil
}

func buildLocationDeactivatedRow(envelope types.Envelope, payload any) (types.StockEventRow, error) {
	event, ok := payload.(*payloads.LocationDeactivatedEvent)
	if !ok {
		return types.StockEventRow{}, invalidPayload(envelope)
	}
	row, err := baseStockRow(envelope)
	if err != nil {
		return types.StockEventRow{}, err
	}
	row.StockLocationID = uuidPtr(event.StockLocationID)
	return row, nil
}
