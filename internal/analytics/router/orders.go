package router

import (
	"github.com/calderco/stockroom-backend/internal/analytics/types"
	"github.com/calderco/stockroom-backend/pkg/outbox/payloads"
)

func buildOrderStateChangedRow(envelope types.Envelope, payload any) (types.OrderEventRow, error) {
	event, ok := payload.(*payloads.OrderStateChangedEvent)
	if !ok {
		return types.OrderEventRow{}, invalidPayload(envelope)
	}
	row, err := baseOrderRow(envelope)
	if err != nil {
		return types.OrderEventRow{}, err
	}
	row.OrderID = uuidPtr(event.OrderID)
	row.OrderNumber = stringPtr(event.Number)
	row.FromState = stringPtr(string(event.FromState))
	row.ToState = stringPtr(string(event.ToState))
	return row, nil
}

func buildOrderCompletedRow(envelope types.Envelope, payload any) (types.OrderEventRow, error) {
	event, ok := payload.(*payloads.OrderCompletedEvent)
	if !ok {
		return types.OrderEventRow{}, invalidPayload(envelope)
	}
	row, err := baseOrderRow(envelope)
	if err != nil {
		return types.OrderEventRow{}, err
	}
	row.OrderID = uuidPtr(event.OrderID)
	row.OrderNumber = stringPtr(event.Number)
	row.AmountCents = int64Ptr(int64(event.TotalCents))
	return row, nil
}

func buildOrderCanceledRow(envelope types.Envelope, payload any) (types.OrderEventRow, error) {
	event, ok := payload.(*payloads.OrderCanceledEvent)
	if !ok {
		return types.OrderEventRow{}, invalidPayload(envelope)
	}
	row, err := baseOrderRow(envelope)
	if err != nil {
		return types.OrderEventRow{}, err
	}
	row.OrderID = uuidPtr(event.OrderID)
	row.OrderNumber = stringPtr(event.Number)
	if !event.CanceledAt.IsZero() {
		row.OccurredAt = event.CanceledAt.UTC()
	}
	return row, nil
}

func buildLineItemAddedRow(envelope types.Envelope, payload any) (types.OrderEventRow, error) {
	event, ok := payload.(*payloads.LineItemAddedEvent)
	if !ok {
		return types.OrderEventRow{}, invalidPayload(envelope)
	}
	row, err := baseOrderRow(envelope)
	if err != nil {
		return types.OrderEventRow{}, err
	}
	row.OrderID = uuidPtr(event.OrderID)
	row.LineItemID = uuidPtr(event.LineItemID)
	row.VariantID = uuidPtr(event.VariantID)
	row.Quantity = int64Ptr(int64(event.Quantity))
	row.AmountCents = int64Ptr(int64(event.UnitPriceCents))
	return row, nil
}

func buildLineItemRemovedRow(envelope types.Envelope, payload any) (types.OrderEventRow, error) {
	event, ok := payload.(*payloads.LineItemRemovedEvent)
	if !ok {
		return types.OrderEventRow{}, invalidPayload(envelope)
	}
	row, err := baseOrderRow(envelope)
	if err != nil {
		return types.OrderEventRow{}, err
	}
	row.OrderID = uuidPtr(event.OrderID)
	row.LineItemID = uuidPtr(event.LineItemID)
	row.VariantID = uuidPtr(event.VariantID)
	row.Quantity = int64Ptr(int64(event.Quantity))
	return row, nil
}
