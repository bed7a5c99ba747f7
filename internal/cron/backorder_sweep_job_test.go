package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/internal/stock"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/logger"
)

func TestBackorderSweepOnlyProcessesFillableItems(t *testing.T) {
	fillable := models.StockItem{ID: uuid.New(), Backorderable: true, QtyOnHand: 5, QtyReserved: 8}
	plain := models.StockItem{ID: uuid.New(), Backorderable: false, QtyOnHand: 5, QtyReserved: 8}
	outOfStock := models.StockItem{ID: uuid.New(), Backorderable: true, QtyOnHand: 0, QtyReserved: 3}
	unreserved := models.StockItem{ID: uuid.New(), Backorderable: true, QtyOnHand: 5, QtyReserved: 0}

	lister := &fakeStockItemLister{items: []models.StockItem{fillable, plain, outOfStock, unreserved}}
	processor := &fakeBackorderProcessor{}
	job := newBackorderSweepJob(t, lister, processor)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(processor.processed) != 1 {
		t.Fatalf("expected 1 item processed, got %d", len(processor.processed))
	}
	if processor.processed[0] != fillable.ID {
		t.Fatalf("processed wrong item: %s", processor.processed[0])
	}
}

func TestBackorderSweepContinuesPastItemFailure(t *testing.T) {
	broken := models.StockItem{ID: uuid.New(), Backorderable: true, QtyOnHand: 2, QtyReserved: 4}
	healthy := models.StockItem{ID: uuid.New(), Backorderable: true, QtyOnHand: 6, QtyReserved: 9}

	lister := &fakeStockItemLister{items: []models.StockItem{broken, healthy}}
	processor := &fakeBackorderProcessor{
		errs: map[uuid.UUID]error{broken.ID: errors.New("lock conflict")},
	}
	job := newBackorderSweepJob(t, lister, processor)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected failure to surface")
	}
	if len(processor.processed) != 2 {
		t.Fatalf("expected sweep to reach both items, got %d", len(processor.processed))
	}
}

func TestBackorderSweepPropagatesListError(t *testing.T) {
	lister := &fakeStockItemLister{err: errors.New("db down")}
	job := newBackorderSweepJob(t, lister, &fakeBackorderProcessor{})

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newBackorderSweepJob(t *testing.T, lister *fakeStockItemLister, processor *fakeBackorderProcessor) *backorderSweepJob {
	t.Helper()
	jobIface, err := NewBackorderSweepJob(BackorderSweepJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Items:  lister,
		Stock:  processor,
	})
	if err != nil {
		t.Fatalf("NewBackorderSweepJob: %v", err)
	}
	job, ok := jobIface.(*backorderSweepJob)
	if !ok {
		t.Fatalf("expected backorderSweepJob, got %T", jobIface)
	}
	return job
}

type fakeStockItemLister struct {
	items []models.StockItem
	err   error
}

func (f *fakeStockItemLister) ListAll(ctx context.Context) ([]models.StockItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type fakeBackorderProcessor struct {
	errs      map[uuid.UUID]error
	processed []uuid.UUID
}

func (f *fakeBackorderProcessor) ProcessBackorders(ctx context.Context, stockItemID uuid.UUID) (*stock.BackorderFillSummary, error) {
	f.processed = append(f.processed, stockItemID)
	if err := f.errs[stockItemID]; err != nil {
		return nil, err
	}
	return &stock.BackorderFillSummary{StockItemID: stockItemID, FilledQuantity: 2, FilledBlocks: 1}, nil
}
