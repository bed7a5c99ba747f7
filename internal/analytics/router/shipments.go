package router

import (
	"github.com/calderco/stockroom-backend/internal/analytics/types"
	"github.com/calderco/stockroom-backend/pkg/outbox/payloads"
)

func buildShipmentReadyRow(envelope types.Envelope, payload any) (types.OrderEventRow, error) {
	event, ok := payload.(*payloads.ShipmentReadyEvent)
	if !ok {
		return types.OrderEventRow{}, invalidPayload(envelope)
	}
	row, err := baseOrderRow(envelope)
	if err != nil {
		return types.OrderEventRow{}, err
	}
	row.OrderID = uuidPtr(event.OrderID)
	row.ShipmentID = uuidPtr(event.ShipmentID)
	return row, nil
}

func buildShipmentShippedRow(envelope types.Envelope, payload any) (types.OrderEventRow, error) {
	event, ok := payload.(*payloads.ShipmentShippedEvent)
	if !ok {
		return types.OrderEventRow{}, invalidPayload(envelope)
	}
	row, err := baseOrderRow(envelope)
	if err != nil {
		return types.OrderEventRow{}, err
	}
	row.OrderID = uuidPtr(event.OrderID)
	row.ShipmentID = uuidPtr(event.ShipmentID)
	if !event.ShippedAt.IsZero() {
		row.OccurredAt = event.ShippedAt.UTC()
	}
	return row, nil
}
