package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/calderco/stockroom-backend/internal/stock"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/logger"
)

// BackorderSweepJobParams configure the backorder drain.
type BackorderSweepJobParams struct {
	Logger *logger.Logger
	Items  stockItemLister
	Stock  backorderProcessor
}

type stockItemLister interface {
	ListAll(ctx context.Context) ([]models.StockItem, error)
}

type backorderProcessor interface {
	ProcessBackorders(ctx context.Context, stockItemID uuid.UUID) (*stock.BackorderFillSummary, error)
}

// NewBackorderSweepJob builds the job that promotes backordered units
// wherever restocks have freed capacity. It backstops the inline fill that
// runs on restock, catching capacity created by releases and transfers.
func NewBackorderSweepJob(params BackorderSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("stock item repository required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock service required")
	}
	return &backorderSweepJob{
		logg:  params.Logger,
		items: params.Items,
		stock: params.Stock,
	}, nil
}

type backorderSweepJob struct {
	logg  *logger.Logger
	items stockItemLister
	stock backorderProcessor
}

func (j *backorderSweepJob) Name() string { return "backorder-sweep" }

func (j *backorderSweepJob) Run(ctx context.Context) error {
	items, err := j.items.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list stock items for sweep: %w", err)
	}

	var errs []error
	swept := 0
	filledUnits := 0
	filledBlocks := 0
	for _, item := range items {
		// Backordered blocks sit inside the reserved count, so an item
		// with nothing on hand or nothing reserved has nothing to fill.
		if !item.Backorderable || item.QtyOnHand <= 0 || item.QtyReserved <= 0 {
			continue
		}
		summary, err := j.stock.ProcessBackorders(ctx, item.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("process backorders for item %s: %w", item.ID, err))
			continue
		}
		swept++
		filledUnits += summary.FilledQuantity
		filledBlocks += summary.FilledBlocks
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"swept":         swept,
		"filled_units":  filledUnits,
		"filled_blocks": filledBlocks,
		"failures":      len(errs),
	})
	j.logg.Info(logCtx, "backorder sweep complete")
	return multierr.Combine(errs...)
}
