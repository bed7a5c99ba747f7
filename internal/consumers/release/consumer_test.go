package release

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/internal/stock"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	pkgerrors "github.com/calderco/stockroom-backend/pkg/errors"
	"github.com/calderco/stockroom-backend/pkg/logger"
	"github.com/calderco/stockroom-backend/pkg/outbox"
	"github.com/calderco/stockroom-backend/pkg/outbox/payloads"
)

func TestReleaseConsumerReleasesCanceledReservation(t *testing.T) {
	locationID := uuid.New()
	item := &models.StockItem{
		ID:              uuid.New(),
		VariantID:       uuid.New(),
		StockLocationID: locationID,
		QtyOnHand:       20,
		QtyReserved:     5,
	}
	stockSvc := &fakeStock{item: item}
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			return nil
		},
	}
	consumer := mustConsumer(t, stockSvc, manager)

	event := payloads.UnitCanceledEvent{
		UnitID:          uuid.New(),
		OrderID:         uuid.New(),
		VariantID:       item.VariantID,
		StockLocationID: &locationID,
		Quantity:        3,
		PriorState:      enums.InventoryUnitStateOnHand,
	}
	envelope := buildEnvelope(t, uuid.New(), event)

	if err := consumer.Process(context.Background(), enums.EventUnitCanceled, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if len(stockSvc.released) != 1 {
		t.Fatalf("expected 1 release, got %d", len(stockSvc.released))
	}
	input := stockSvc.released[0]
	if input.StockItemID != item.ID {
		t.Fatalf("stock item id mismatch: %s", input.StockItemID)
	}
	if input.Quantity != 3 {
		t.Fatalf("unexpected quantity: %d", input.Quantity)
	}
	if input.OriginatorID == nil || *input.OriginatorID != event.OrderID {
		t.Fatalf("originator should be the canceled order")
	}
	if input.Reason != "unit canceled" {
		t.Fatalf("unexpected reason: %q", input.Reason)
	}
}

func TestReleaseConsumerSkipsOtherEventTypes(t *testing.T) {
	stockSvc := &fakeStock{}
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			t.Fatalf("idempotency should not be checked for skipped events")
			return false, nil
		},
	}
	consumer := mustConsumer(t, stockSvc, manager)

	envelope := buildEnvelope(t, uuid.New(), payloads.StockAdjustedEvent{})
	if err := consumer.Process(context.Background(), enums.EventStockAdjusted, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(stockSvc.released) != 0 {
		t.Fatalf("expected no releases for skipped event")
	}
}

func TestReleaseConsumerIsIdempotent(t *testing.T) {
	stockSvc := &fakeStock{}
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return true, nil
		},
	}
	consumer := mustConsumer(t, stockSvc, manager)

	locationID := uuid.New()
	envelope := buildEnvelope(t, uuid.New(), payloads.UnitCanceledEvent{
		UnitID:          uuid.New(),
		OrderID:         uuid.New(),
		VariantID:       uuid.New(),
		StockLocationID: &locationID,
		Quantity:        2,
	})
	if err := consumer.Process(context.Background(), enums.EventUnitCanceled, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(stockSvc.lookups) != 0 || len(stockSvc.released) != 0 {
		t.Fatalf("expected no stock calls when already processed")
	}
}

func TestReleaseConsumerSkipsUnitWithoutLocation(t *testing.T) {
	stockSvc := &fakeStock{}
	deleted := false
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	consumer := mustConsumer(t, stockSvc, manager)

	envelope := buildEnvelope(t, uuid.New(), payloads.UnitCanceledEvent{
		UnitID:    uuid.New(),
		OrderID:   uuid.New(),
		VariantID: uuid.New(),
		Quantity:  2,
	})
	if err := consumer.Process(context.Background(), enums.EventUnitCanceled, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(stockSvc.lookups) != 0 {
		t.Fatalf("expected no lookup without a location")
	}
	if deleted {
		t.Fatalf("mark should be kept for an unprocessable event")
	}
}

func TestReleaseConsumerSkipsMissingStockItem(t *testing.T) {
	stockSvc := &fakeStock{getErr: pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")}
	deleted := false
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	consumer := mustConsumer(t, stockSvc, manager)

	locationID := uuid.New()
	envelope := buildEnvelope(t, uuid.New(), payloads.UnitCanceledEvent{
		UnitID:          uuid.New(),
		OrderID:         uuid.New(),
		VariantID:       uuid.New(),
		StockLocationID: &locationID,
		Quantity:        1,
	})
	if err := consumer.Process(context.Background(), enums.EventUnitCanceled, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(stockSvc.released) != 0 {
		t.Fatalf("expected no release when the stock item is gone")
	}
	if deleted {
		t.Fatalf("mark should be kept when the stock item is gone")
	}
}

func TestReleaseConsumerDeletesOnLookupFailure(t *testing.T) {
	stockSvc := &fakeStock{getErr: errors.New("connection refused")}
	deleted := false
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	consumer := mustConsumer(t, stockSvc, manager)

	locationID := uuid.New()
	envelope := buildEnvelope(t, uuid.New(), payloads.UnitCanceledEvent{
		UnitID:          uuid.New(),
		OrderID:         uuid.New(),
		VariantID:       uuid.New(),
		StockLocationID: &locationID,
		Quantity:        1,
	})
	if err := consumer.Process(context.Background(), enums.EventUnitCanceled, envelope); err == nil {
		t.Fatalf("expected error when lookup fails")
	}
	if !deleted {
		t.Fatalf("expected idempotency key deletion on lookup failure")
	}
}

func TestReleaseConsumerDeletesOnReleaseFailure(t *testing.T) {
	locationID := uuid.New()
	stockSvc := &fakeStock{
		item:       &models.StockItem{ID: uuid.New(), VariantID: uuid.New(), StockLocationID: locationID},
		releaseErr: errors.New("lock contention"),
	}
	deleted := false
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	consumer := mustConsumer(t, stockSvc, manager)

	envelope := buildEnvelope(t, uuid.New(), payloads.UnitCanceledEvent{
		UnitID:          uuid.New(),
		OrderID:         uuid.New(),
		VariantID:       stockSvc.item.VariantID,
		StockLocationID: &locationID,
		Quantity:        4,
	})
	if err := consumer.Process(context.Background(), enums.EventUnitCanceled, envelope); err == nil {
		t.Fatalf("expected error when release fails")
	}
	if !deleted {
		t.Fatalf("expected idempotency key deletion on release failure")
	}
}

type lookup struct {
	variantID  uuid.UUID
	locationID uuid.UUID
}

type fakeStock struct {
	item       *models.StockItem
	getErr     error
	releaseErr error
	lookups    []lookup
	released   []stock.ReleaseInput
}

func (f *fakeStock) GetByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*models.StockItem, error) {
	f.lookups = append(f.lookups, lookup{variantID: variantID, locationID: locationID})
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.item, nil
}

func (f *fakeStock) Release(ctx context.Context, input stock.ReleaseInput) (*models.StockItem, error) {
	f.released = append(f.released, input)
	if f.releaseErr != nil {
		return nil, f.releaseErr
	}
	item := *f.item
	item.QtyReserved -= input.Quantity
	return &item, nil
}

type fakeIdempotency struct {
	check    func(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	deleteFn func(ctx context.Context, consumer string, eventID uuid.UUID) error
}

func (f fakeIdempotency) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	return f.check(ctx, consumer, eventID)
}

func (f fakeIdempotency) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	return f.deleteFn(ctx, consumer, eventID)
}

func mustConsumer(t *testing.T, stockSvc *fakeStock, manager fakeIdempotency) *Consumer {
	t.Helper()
	consumer, err := NewConsumer(stockSvc, manager, logger.New(logger.Options{
		ServiceName: "release-test",
		Level:       logger.ParseLevel("debug"),
		Output:      io.Discard,
	}))
	if err != nil {
		t.Fatalf("failed to build consumer: %v", err)
	}
	return consumer
}

func buildEnvelope(t *testing.T, eventID uuid.UUID, payload any) outbox.PayloadEnvelope {
	t.Helper()
	bytes, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now(),
		Data:       bytes,
	}
}
