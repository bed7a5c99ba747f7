package release

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/internal/stock"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	pkgerrors "github.com/calderco/stockroom-backend/pkg/errors"
	"github.com/calderco/stockroom-backend/pkg/logger"
	"github.com/calderco/stockroom-backend/pkg/outbox"
	"github.com/calderco/stockroom-backend/pkg/outbox/payloads"
)

const consumerName = "release-inventory"

type stockReleaser interface {
	GetByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*models.StockItem, error)
	Release(ctx context.Context, input stock.ReleaseInput) (*models.StockItem, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer returns canceled reservations to sellable stock. Order and unit
// cancellation only void the inventory unit blocks; the qty_reserved they
// held stays put until this consumer reacts to the unit_canceled events, so
// the engine never unwinds reservations inside the canceling transaction.
type Consumer struct {
	stock   stockReleaser
	manager idempotencyChecker
	logg    *logger.Logger
}

// NewConsumer builds the release-inventory consumer.
func NewConsumer(stockSvc stockReleaser, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if stockSvc == nil {
		return nil, fmt.Errorf("stock service required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{stock: stockSvc, manager: manager, logg: logg}, nil
}

// Process releases the reservation held by a canceled unit block. Events
// other than unit_canceled are skipped; a returned error asks the caller to
// redeliver.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	if eventType != enums.EventUnitCanceled {
		return nil
	}

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	var event payloads.UnitCanceledEvent
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode unit_canceled payload", err)
		return nil
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"unit_id":    event.UnitID,
		"order_id":   event.OrderID,
		"variant_id": event.VariantID,
	})

	if event.Quantity <= 0 {
		c.logg.Warn(logCtx, "canceled unit has no quantity to release")
		return nil
	}
	if event.StockLocationID == nil {
		c.logg.Warn(logCtx, "canceled unit has no stock location")
		return nil
	}

	item, err := c.stock.GetByVariantAndLocation(ctx, event.VariantID, *event.StockLocationID)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			c.logg.Warn(logCtx, "stock item for canceled unit not found")
			return nil
		}
		_ = c.manager.Delete(ctx, consumerName, eventID)
		return fmt.Errorf("look up stock item: %w", err)
	}

	released, err := c.stock.Release(ctx, stock.ReleaseInput{
		StockItemID:  item.ID,
		Quantity:     event.Quantity,
		OriginatorID: &event.OrderID,
		Reason:       "unit canceled",
	})
	if err != nil {
		c.logg.Error(logCtx, "failed to release canceled reservation", err)
		_ = c.manager.Delete(ctx, consumerName, eventID)
		return err
	}

	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
		"stock_item_id": released.ID,
		"quantity":      event.Quantity,
		"qty_reserved":  released.QtyReserved,
	}), "canceled reservation released")
	return nil
}
