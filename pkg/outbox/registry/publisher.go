package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/calderco/stockroom-backend/pkg/config"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	"github.com/calderco/stockroom-backend/pkg/outbox"
	"github.com/calderco/stockroom-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic name. Every
// event rides the single domain topic; consumers fan out via subscriptions.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.DomainTopic == "" {
		return nil, fmt.Errorf("domain topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	topic := cfg.DomainTopic

	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventStockAdjusted,
			AggregateType:  enums.AggregateStockItem,
			PayloadFactory: func() interface{} { return &payloads.StockAdjustedEvent{} },
		},
		{
			EventType:      enums.EventStockReserved,
			AggregateType:  enums.AggregateStockItem,
			PayloadFactory: func() interface{} { return &payloads.StockReservedEvent{} },
		},
		{
			EventType:      enums.EventStockReleased,
			AggregateType:  enums.AggregateStockItem,
			PayloadFactory: func() interface{} { return &payloads.StockReleasedEvent{} },
		},
		{
			EventType:      enums.EventBackorderProcessed,
			AggregateType:  enums.AggregateStockItem,
			PayloadFactory: func() interface{} { return &payloads.BackorderProcessedEvent{} },
		},
		{
			EventType:      enums.EventLocationCreated,
			AggregateType:  enums.AggregateStockLocation,
			PayloadFactory: func() interface{} { return &payloads.LocationCreatedEvent{} },
		},
		{
			EventType:      enums.EventLocationDeactivated,
			AggregateType:  enums.AggregateStockLocation,
			PayloadFactory: func() interface{} { return &payloads.LocationDeactivatedEvent{} },
		},
		{
			EventType:      enums.EventTransferCreated,
			AggregateType:  enums.AggregateStockTransfer,
			PayloadFactory: func() interface{} { return &payloads.TransferCreatedEvent{} },
		},
		{
			EventType:      enums.EventTransferCompleted,
			AggregateType:  enums.AggregateStockTransfer,
			PayloadFactory: func() interface{} { return &payloads.TransferCompletedEvent{} },
		},
		{
			EventType:      enums.EventTransferPartiallyFailed,
			AggregateType:  enums.AggregateStockTransfer,
			PayloadFactory: func() interface{} { return &payloads.TransferPartiallyFailedEvent{} },
		},
		{
			EventType:      enums.EventUnitShipped,
			AggregateType:  enums.AggregateInventoryUnit,
			PayloadFactory: func() interface{} { return &payloads.UnitShippedEvent{} },
		},
		{
			EventType:      enums.EventUnitCanceled,
			AggregateType:  enums.AggregateInventoryUnit,
			PayloadFactory: func() interface{} { return &payloads.UnitCanceledEvent{} },
		},
		{
			EventType:      enums.EventUnitReturned,
			AggregateType:  enums.AggregateInventoryUnit,
			PayloadFactory: func() interface{} { return &payloads.UnitReturnedEvent{} },
		},
		{
			EventType:      enums.EventUnitBackorderFilled,
			AggregateType:  enums.AggregateInventoryUnit,
			PayloadFactory: func() interface{} { return &payloads.UnitBackorderFilledEvent{} },
		},
		{
			EventType:      enums.EventOrderStateChanged,
			AggregateType:  enums.AggregateOrder,
			PayloadFactory: func() interface{} { return &payloads.OrderStateChangedEvent{} },
		},
		{
			EventType:      enums.EventOrderCompleted,
			AggregateType:  enums.AggregateOrder,
			PayloadFactory: func() interface{} { return &payloads.OrderCompletedEvent{} },
		},
		{
			EventType:      enums.EventOrderCanceled,
			AggregateType:  enums.AggregateOrder,
			PayloadFactory: func() interface{} { return &payloads.OrderCanceledEvent{} },
		},
		{
			EventType:      enums.EventLineItemAdded,
			AggregateType:  enums.AggregateOrder,
			PayloadFactory: func() interface{} { return &payloads.LineItemAddedEvent{} },
		},
		{
			EventType:      enums.EventLineItemRemoved,
			AggregateType:  enums.AggregateOrder,
			PayloadFactory: func() interface{} { return &payloads.LineItemRemovedEvent{} },
		},
		{
			EventType:      enums.EventPaymentRecorded,
			AggregateType:  enums.AggregateOrder,
			PayloadFactory: func() interface{} { return &payloads.PaymentRecordedEvent{} },
		},
		{
			EventType:      enums.EventPaymentCompleted,
			AggregateType:  enums.AggregateOrder,
			PayloadFactory: func() interface{} { return &payloads.PaymentCompletedEvent{} },
		},
		{
			EventType:      enums.EventShipmentReady,
			AggregateType:  enums.AggregateShipment,
			PayloadFactory: func() interface{} { return &payloads.ShipmentReadyEvent{} },
		},
		{
			EventType:      enums.EventShipmentShipped,
			AggregateType:  enums.AggregateShipment,
			PayloadFactory: func() interface{} { return &payloads.ShipmentShippedEvent{} },
		},
	} {
		desc.Topic = topic
		reg.register(desc)
	}

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if payload == nil {
		return nil, NewNonRetryableError(fmt.Errorf("payload factory not configured for %s", event.EventType))
	}
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
