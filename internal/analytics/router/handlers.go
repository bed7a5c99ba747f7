package router

import (
	"context"
	"fmt"

	"github.com/calderco/stockroom-backend/internal/analytics/types"
	analyticswriter "github.com/calderco/stockroom-backend/internal/analytics/writer"
	"github.com/calderco/stockroom-backend/pkg/logger"
)

// stockRowBuilder maps a decoded payload onto the stock_events schema.
type stockRowBuilder func(envelope types.Envelope, payload any) (types.StockEventRow, error)

// orderRowBuilder maps a decoded payload onto the order_events schema.
type orderRowBuilder func(envelope types.Envelope, payload any) (types.OrderEventRow, error)

type stockEventHandler struct {
	writer Writer
	logg   *logger.Logger
	build  stockRowBuilder
}

func newStockEventHandler(writer Writer, logg *logger.Logger, build stockRowBuilder) Handler {
	return &stockEventHandler{writer: writer, logg: logg, build: build}
}

func (h *stockEventHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	row, err := h.build(envelope, payload)
	if err != nil {
		h.logg.Error(ctx, "failed to build stock event row", err)
		return err
	}
	if err := h.writer.InsertStock(ctx, row); err != nil {
		h.logg.Error(ctx, "failed to insert stock event row", err)
		return err
	}
	return nil
}

type orderEventHandler struct {
	writer Writer
	logg   *logger.Logger
	build  orderRowBuilder
}

func newOrderEventHandler(writer Writer, logg *logger.Logger, build orderRowBuilder) Handler {
	return &orderEventHandler{writer: writer, logg: logg, build: build}
}

func (h *orderEventHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	row, err := h.build(envelope, payload)
	if err != nil {
		h.logg.Error(ctx, "failed to build order event row", err)
		return err
	}
	if err := h.writer.InsertOrder(ctx, row); err != nil {
		h.logg.Error(ctx, "failed to insert order event row", err)
		return err
	}
	return nil
}

// baseStockRow carries the envelope identity; builders fill in the
// dimensions their event type knows about. The raw payload rides along so
// no fact is lost to schema gaps.
func baseStockRow(envelope types.Envelope) (types.StockEventRow, error) {
	payloadJSON, err := analyticswriter.EncodeJSON(envelope.Payload)
	if err != nil {
		return types.StockEventRow{}, fmt.Errorf("encode payload json: %w", err)
	}
	return types.StockEventRow{
		EventID:       envelope.EventID,
		EventType:     string(envelope.EventType),
		OccurredAt:    envelope.OccurredAt.UTC(),
		AggregateType: string(envelope.AggregateType),
		AggregateID:   envelope.AggregateID,
		Payload:       payloadJSON,
	}, nil
}

func baseOrderRow(envelope types.Envelope) (types.OrderEventRow, error) {
	payloadJSON, err := analyticswriter.EncodeJSON(envelope.Payload)
	if err != nil {
		return types.OrderEventRow{}, fmt.Errorf("encode payload json: %w", err)
	}
	return types.OrderEventRow{
		EventID:       envelope.EventID,
		EventType:     string(envelope.EventType),
		OccurredAt:    envelope.OccurredAt.UTC(),
		AggregateType: string(envelope.AggregateType),
		AggregateID:   envelope.AggregateID,
		Payload:       payloadJSON,
	}, nil
}

func invalidPayload(envelope types.Envelope) error {
	return fmt.Errorf("invalid payload for %s", envelope.EventType)
}
