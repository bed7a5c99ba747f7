package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/calderco/stockroom-backend/internal/analytics/types"
	"github.com/calderco/stockroom-backend/pkg/enums"
	"github.com/calderco/stockroom-backend/pkg/logger"
	"github.com/calderco/stockroom-backend/pkg/outbox/payloads"
)

var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer delivers BigQuery rows produced by analytics handlers.
type Writer interface {
	InsertStock(ctx context.Context, row types.StockEventRow) error
	InsertOrder(ctx context.Context, row types.OrderEventRow) error
}

// Handler receives an envelope plus a decoded event payload.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope, payload any) error
}

type handlerEntry struct {
	factory func() any
	handler Handler
}

// Router dispatches domain event envelopes to the configured handler per
// event type. Every event the engine emits lands in one of two fact tables:
// stock-side events in stock_events, order-side events in order_events.
type Router struct {
	handlers map[enums.OutboxEventType]handlerEntry
	logg     *logger.Logger
}

// NewRouter wires the default handlers and allows overrides for specific events.
func NewRouter(writer Writer, logg *logger.Logger, overrides map[enums.OutboxEventType]Handler) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	stock := func(build stockRowBuilder) Handler { return newStockEventHandler(writer, logg, build) }
	order := func(build orderRowBuilder) Handler { return newOrderEventHandler(writer, logg, build) }

	entries := map[enums.OutboxEventType]handlerEntry{
		enums.EventStockAdjusted: {
			factory: func() any { return &payloads.StockAdjustedEvent{} },
			handler: stock(buildStockAdjustedRow),
		},
		enums.EventStockReserved: {
			factory: func() any { return &payloads.StockReservedEvent{} },
			handler: stock(buildStockReservedRow),
		},
		enums.EventStockReleased: {
			factory: func() any { return &payloads.StockReleasedEvent{} },
			handler: stock(buildStockReleasedRow),
		},
		enums.EventBackorderProcessed: {
			factory: func() any { return &payloads.BackorderProcessedEvent{} },
			handler: stock(buildBackorderProcessedRow),
		},
		enums.EventLocationCreated: {
			factory: func() any { return &payloads.LocationCreatedEvent{} },
			handler: stock(buildLocationCreatedRow),
		},
		enums.EventLocationDeactivated: {
			factory: func() any { return &payloads.LocationDeactivatedEvent{} },
			handler: stock(buildLocationDeactivatedRow),
		},
		enums.EventTransferCreated: {
			factory: func() any { return &payloads.TransferCreatedEvent{} },
			handler: stock(buildTransferCreatedRow),
		},
		enums.EventTransferCompleted: {
			factory: func() any { return &payloads.TransferCompletedEvent{} },
			handler: stock(buildTransferCompletedRow),
		},
		enums.EventTransferPartiallyFailed: {
			factory: func() any { return &payloads.TransferPartiallyFailedEvent{} },
			handler: stock(buildTransferPartiallyFailedRow),
		},
		enums.EventUnitShipped: {
			factory: func() any { return &payloads.UnitShippedEvent{} },
			handler: stock(buildUnitShippedRow),
		},
		enums.EventUnitCanceled: {
			factory: func() any { return &payloads.UnitCanceledEvent{} },
			handler: stock(buildUnitCanceledRow),
		},
		enums.EventUnitReturned: {
			factory: func() any { return &payloads.UnitReturnedEvent{} },
			handler: stock(buildUnitReturnedRow),
		},
		enums.EventUnitBackorderFilled: {
			factory: func() any { return &payloads.UnitBackorderFilledEvent{} },
			handler: stock(buildUnitBackorderFilledRow),
		},
		enums.EventOrderStateChanged: {
			factory: func() any { return &payloads.OrderStateChangedEvent{} },
			handler: order(buildOrderStateChangedRow),
		},
		enums.EventOrderCompleted: {
			factory: func() any { return &payloads.OrderCompletedEvent{} },
			handler: order(buildOrderCompletedRow),
		},
		enums.EventOrderCanceled: {
			factory: func() any { return &payloads.OrderCanceledEvent{} },
			handler: order(buildOrderCanceledRow),
		},
		enums.EventLineItemAdded: {
			factory: func() any { return &payloads.LineItemAddedEvent{} },
			handler: order(buildLineItemAddedRow),
		},
		enums.EventLineItemRemoved: {
			factory: func() any { return &payloads.LineItemRemovedEvent{} },
			handler: order(buildLineItemRemovedRow),
		},
		enums.EventPaymentRecorded: {
			factory: func() any { return &payloads.PaymentRecordedEvent{} },
			handler: order(buildPaymentRecordedRow),
		},
		enums.EventPaymentCompleted: {
			factory: func() any { return &payloads.PaymentCompletedEvent{} },
			handler: order(buildPaymentCompletedRow),
		},
		enums.EventShipmentReady: {
			factory: func() any { return &payloads.ShipmentReadyEvent{} },
			handler: order(buildShipmentReadyRow),
		},
		enums.EventShipmentShipped: {
			factory: func() any { return &payloads.ShipmentShippedEvent{} },
			handler: order(buildShipmentShippedRow),
		},
	}

	for event, custom := range overrides {
		entry, ok := entries[event]
		if !ok || custom == nil {
			continue
		}
		entry.handler = custom
		entries[event] = entry
	}

	return &Router{
		handlers: entries,
		logg:     logg,
	}, nil
}

// Handle dispatches the incoming envelope to the configured handler.
func (r *Router) Handle(ctx context.Context, envelope types.Envelope) error {
	entry, ok := r.handlers[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	payload := entry.factory()
	if len(envelope.Payload) == 0 {
		return fmt.Errorf("empty payload for %s", envelope.EventType)
	}
	if err := json.Unmarshal(envelope.Payload, payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", envelope.EventType, err)
	}

	return entry.handler.Handle(ctx, envelope, payload)
}
