package router

import (
	"github.com/calderco/stockroom-backend/internal/analytics/types"
	"github.com/calderco/stockroom-backend/pkg/outbox/payloads"
)

func buildPaymentRecordedRow(envelope types.Envelope, payload any) (types.OrderEventRow, error) {
	event, ok := payload.(*payloads.PaymentRecordedEvent)
	if !ok {
		return types.OrderEventRow{}, invalidPayload(envelope)
	}
	row, err := baseOrderRow(envelope)
	if err != nil {
		return types.OrderEventRow{}, err
	}
	row.OrderID = uuidPtr(event.OrderID)
	row.PaymentID = uuidPtr(event.PaymentID)
	row.AmountCents = int64Ptr(int64(event.AmountCents))
	return row, nil
}

func buildPaymentCompletedRow(envelope types.Envelope, payload any) (types.OrderEventRow, error) {
	event, ok := payload.(*payloads.PaymentCompletedEvent)
	if !ok {
		return types.OrderEventRow{}, invalidPayload(envelope)
	}
	row, err := baseOrderRow(envelope)
	if err != nil {
		return types.OrderEventRow{}, err
	}
	row.OrderID = uuidPtr(event.OrderID)
	row.PaymentID = uuidPtr(event.PaymentID)
	row.AmountCents = int64Ptr(int64(event.AmountCents))
	if !event.CompletedAt.IsZero() {
		row.OccurredAt = event.CompletedAt.UTC()
	}
	return row, nil
}
