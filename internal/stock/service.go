package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/calderco/stockroom-backend/pkg/db"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	pkgerrors "github.com/calderco/stockroom-backend/pkg/errors"
	"github.com/calderco/stockroom-backend/pkg/metrics"
	"github.com/calderco/stockroom-backend/pkg/outbox"
	"github.com/calderco/stockroom-backend/pkg/outbox/payloads"
	"github.com/calderco/stockroom-backend/pkg/pagination"
)

// maxConflictAttempts bounds the read-modify-write cycle retried on lock
// version conflicts before the conflict surfaces to the caller.
const maxConflictAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	filler   BackorderFiller
	engine   *metrics.EngineMetrics
	autoFill bool
}

// NewService builds a stock service with the required dependencies. The
// metrics engine may be nil; autoFill controls whether positive on-hand
// adjustments immediately promote backordered units.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, filler BackorderFiller, engine *metrics.EngineMetrics, autoFill bool) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if filler == nil {
		return nil, fmt.Errorf("backorder filler required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		filler:   filler,
		engine:   engine,
		autoFill: autoFill,
	}, nil
}

func (s *service) Get(ctx context.Context, stockItemID uuid.UUID) (*models.StockItem, error) {
	if stockItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock item id required")
	}
	item, err := s.repo.FindByID(ctx, stockItemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
	}
	return item, nil
}

func (s *service) GetByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*models.StockItem, error) {
	if variantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	if locationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock location id required")
	}
	item, err := s.repo.FindByVariantAndLocation(ctx, variantID, locationID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
	}
	return item, nil
}

func (s *service) ListMovements(ctx context.Context, stockItemID uuid.UUID, params pagination.Params) ([]models.StockMovement, *pagination.Cursor, error) {
	if stockItemID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "stock item id required")
	}
	if _, err := s.Get(ctx, stockItemID); err != nil {
		return nil, nil, err
	}
	movements, cursor, err := s.repo.ListMovements(ctx, stockItemID, params)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}
	return movements, cursor, nil
}

func (s *service) ItemOrCreate(ctx context.Context, input ItemOrCreateInput) (*models.StockItem, error) {
	var item *models.StockItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.ItemOrCreateTx(ctx, tx, input)
		if err != nil {
			return err
		}
		item = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) ItemOrCreateTx(ctx context.Context, tx *gorm.DB, input ItemOrCreateInput) (*models.StockItem, error) {
	if input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	if input.StockLocationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock location id required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock item creation")
	}

	repo := s.repo.WithTx(tx)
	item, err := repo.FindByVariantAndLocation(ctx, input.VariantID, input.StockLocationID)
	if err == nil {
		return item, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
	}

	item = &models.StockItem{
		ID:              uuid.New(),
		VariantID:       input.VariantID,
		StockLocationID: input.StockLocationID,
		Backorderable:   input.Backorderable,
	}
	if err := repo.Create(ctx, item); err != nil {
		// Lost a create race; the winner's row is the item.
		if dbpkg.IsUniqueViolation(err, "ux_stock_items_variant_location") {
			existing, findErr := repo.FindByVariantAndLocation(ctx, input.VariantID, input.StockLocationID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load stock item after create race")
			}
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock item")
	}
	return item, nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.StockItem, error) {
	if err := validateAdjustInput(&input); err != nil {
		return nil, err
	}
	return s.withConflictRetry(ctx, "adjust", func(tx *gorm.DB) (*models.StockItem, error) {
		return s.AdjustTx(ctx, tx, input)
	})
}

func (s *service) AdjustTx(ctx context.Context, tx *gorm.DB, input AdjustInput) (*models.StockItem, error) {
	if err := validateAdjustInput(&input); err != nil {
		return nil, err
	}
	item, err := s.applyTx(ctx, tx, input.StockItemID, s.adjustChange(input))
	if err != nil {
		return nil, err
	}
	if input.QuantityDelta > 0 && s.autoFill && item.Backorderable {
		if _, err := s.fillBackordersTx(ctx, tx, item); err != nil {
			return nil, err
		}
	}
	return item, nil
}

func (s *service) Reserve(ctx context.Context, input ReserveInput) (*models.StockItem, error) {
	if err := validateQuantityInput(input.StockItemID, input.Quantity); err != nil {
		return nil, err
	}
	return s.withConflictRetry(ctx, "reserve", func(tx *gorm.DB) (*models.StockItem, error) {
		return s.ReserveTx(ctx, tx, input)
	})
}

func (s *service) ReserveTx(ctx context.Context, tx *gorm.DB, input ReserveInput) (*models.StockItem, error) {
	if err := validateQuantityInput(input.StockItemID, input.Quantity); err != nil {
		return nil, err
	}
	return s.applyTx(ctx, tx, input.StockItemID, s.reserveChange(input))
}

func (s *service) Release(ctx context.Context, input ReleaseInput) (*models.StockItem, error) {
	if err := validateQuantityInput(input.StockItemID, input.Quantity); err != nil {
		return nil, err
	}
	return s.withConflictRetry(ctx, "release", func(tx *gorm.DB) (*models.StockItem, error) {
		return s.ReleaseTx(ctx, tx, input)
	})
}

func (s *service) ReleaseTx(ctx context.Context, tx *gorm.DB, input ReleaseInput) (*models.StockItem, error) {
	if err := validateQuantityInput(input.StockItemID, input.Quantity); err != nil {
		return nil, err
	}
	return s.applyTx(ctx, tx, input.StockItemID, s.releaseChange(input))
}

func (s *service) ConfirmShipment(ctx context.Context, input ConfirmShipmentInput) (*models.StockItem, error) {
	if err := validateQuantityInput(input.StockItemID, input.Quantity); err != nil {
		return nil, err
	}
	return s.withConflictRetry(ctx, "confirm_shipment", func(tx *gorm.DB) (*models.StockItem, error) {
		return s.ConfirmShipmentTx(ctx, tx, input)
	})
}

func (s *service) ConfirmShipmentTx(ctx context.Context, tx *gorm.DB, input ConfirmShipmentInput) (*models.StockItem, error) {
	if err := validateQuantityInput(input.StockItemID, input.Quantity); err != nil {
		return nil, err
	}
	return s.applyTx(ctx, tx, input.StockItemID, s.shipmentChange(input))
}

func (s *service) ProcessBackorders(ctx context.Context, stockItemID uuid.UUID) (*BackorderFillSummary, error) {
	if stockItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock item id required")
	}

	var summary *BackorderFillSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindByID(ctx, stockItemID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
		}
		result, err := s.fillBackordersTx(ctx, tx, item)
		if err != nil {
			return err
		}
		summary = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// withConflictRetry reruns the mutation in a fresh transaction while the
// only failure is a lock version conflict, then surfaces the conflict.
func (s *service) withConflictRetry(ctx context.Context, operation string, fn func(tx *gorm.DB) (*models.StockItem, error)) (*models.StockItem, error) {
	var updated *models.StockItem
	for attempt := 1; ; attempt++ {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			item, err := fn(tx)
			if err != nil {
				return err
			}
			updated = item
			return nil
		})
		if err == nil {
			return updated, nil
		}
		if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) || attempt >= maxConflictAttempts {
			return nil, err
		}
		s.engine.IncConflictRetry(operation)
	}
}

// itemChange is one computed counter update plus its audit trail. The
// movement and event persist in the same transaction as the counters.
type itemChange struct {
	onHand   int
	reserved int
	movement models.StockMovement
	event    *outbox.DomainEvent
}

// applyTx runs a single optimistic attempt against the caller's
// transaction: load, compute, compare-and-swap, then record the movement
// and queue the event.
func (s *service) applyTx(ctx context.Context, tx *gorm.DB, stockItemID uuid.UUID, compute func(item *models.StockItem) (*itemChange, error)) (*models.StockItem, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock mutation")
	}

	repo := s.repo.WithTx(tx)
	item, err := repo.FindByID(ctx, stockItemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
	}

	change, err := compute(item)
	if err != nil {
		return nil, err
	}

	expected := item.LockVersion
	item.QtyOnHand = change.onHand
	item.QtyReserved = change.reserved
	ok, err := repo.UpdateQuantities(ctx, item, expected)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock quantities")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "stock item modified concurrently")
	}

	change.movement.ID = uuid.New()
	change.movement.StockItemID = item.ID
	if err := repo.CreateMovement(ctx, &change.movement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}
	if change.event != nil {
		if err := s.outbox.Emit(ctx, tx, *change.event); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue stock event")
		}
	}
	return item, nil
}

func (s *service) adjustChange(input AdjustInput) func(item *models.StockItem) (*itemChange, error) {
	return func(item *models.StockItem) (*itemChange, error) {
		onHand := item.QtyOnHand + input.QuantityDelta
		if onHand < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "adjustment would drive on-hand negative").
				WithDetails(map[string]any{
					"stock_item_id":  item.ID,
					"quantity_delta": input.QuantityDelta,
					"qty_on_hand":    item.QtyOnHand,
				})
		}
		if !item.Backorderable && item.QtyReserved > onHand {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "adjustment would strand existing reservations").
				WithDetails(map[string]any{
					"stock_item_id":  item.ID,
					"quantity_delta": input.QuantityDelta,
					"qty_on_hand":    item.QtyOnHand,
					"qty_reserved":   item.QtyReserved,
				})
		}

		return &itemChange{
			onHand:   onHand,
			reserved: item.QtyReserved,
			movement: models.StockMovement{
				QuantityDelta: input.QuantityDelta,
				Originator:    input.Originator,
				OriginatorID:  input.OriginatorID,
				Reason:        optionalReason(input.Reason),
			},
			event: &outbox.DomainEvent{
				EventType:     enums.EventStockAdjusted,
				AggregateType: enums.AggregateStockItem,
				AggregateID:   item.ID,
				Version:       1,
				Data: payloads.StockAdjustedEvent{
					StockItemID:     item.ID,
					VariantID:       item.VariantID,
					StockLocationID: item.StockLocationID,
					QuantityDelta:   input.QuantityDelta,
					QtyOnHand:       onHand,
					QtyReserved:     item.QtyReserved,
					Originator:      input.Originator,
					Reason:          input.Reason,
				},
			},
		}, nil
	}
}

func (s *service) reserveChange(input ReserveInput) func(item *models.StockItem) (*itemChange, error) {
	return func(item *models.StockItem) (*itemChange, error) {
		available := item.Available()
		if input.Quantity > available && !item.Backorderable {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock to reserve").
				WithDetails(map[string]any{
					"stock_item_id": item.ID,
					"requested":     input.Quantity,
					"available":     available,
				})
		}

		reserved := item.QtyReserved + input.Quantity
		backordered := 0
		if shortfall := reserved - item.QtyOnHand; shortfall > 0 {
			backordered = shortfall
			if backordered > input.Quantity {
				backordered = input.Quantity
			}
		}

		return &itemChange{
			onHand:   item.QtyOnHand,
			reserved: reserved,
			movement: models.StockMovement{
				QuantityDelta: input.Quantity,
				Originator:    enums.MovementOriginatorReservation,
				OriginatorID:  input.OriginatorID,
				Reason:        optionalReason(input.Reason),
			},
			event: &outbox.DomainEvent{
				EventType:     enums.EventStockReserved,
				AggregateType: enums.AggregateStockItem,
				AggregateID:   item.ID,
				Version:       1,
				Data: payloads.StockReservedEvent{
					StockItemID:     item.ID,
					VariantID:       item.VariantID,
					StockLocationID: item.StockLocationID,
					Quantity:        input.Quantity,
					QtyReserved:     reserved,
					Backordered:     backordered,
				},
			},
		}, nil
	}
}

func (s *service) releaseChange(input ReleaseInput) func(item *models.StockItem) (*itemChange, error) {
	return func(item *models.StockItem) (*itemChange, error) {
		if input.Quantity > item.QtyReserved {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "release exceeds reserved stock").
				WithDetails(map[string]any{
					"stock_item_id": item.ID,
					"requested":     input.Quantity,
					"qty_reserved":  item.QtyReserved,
				})
		}
		reserved := item.QtyReserved - input.Quantity

		return &itemChange{
			onHand:   item.QtyOnHand,
			reserved: reserved,
			movement: models.StockMovement{
				QuantityDelta: -input.Quantity,
				Originator:    enums.MovementOriginatorRelease,
				OriginatorID:  input.OriginatorID,
				Reason:        optionalReason(input.Reason),
			},
			event: &outbox.DomainEvent{
				EventType:     enums.EventStockReleased,
				AggregateType: enums.AggregateStockItem,
				AggregateID:   item.ID,
				Version:       1,
				Data: payloads.StockReleasedEvent{
					StockItemID:     item.ID,
					VariantID:       item.VariantID,
					StockLocationID: item.StockLocationID,
					Quantity:        input.Quantity,
					QtyReserved:     reserved,
				},
			},
		}, nil
	}
}

func (s *service) shipmentChange(input ConfirmShipmentInput) func(item *models.StockItem) (*itemChange, error) {
	return func(item *models.StockItem) (*itemChange, error) {
		if input.Quantity > item.QtyReserved {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "shipment exceeds reserved stock").
				WithDetails(map[string]any{
					"stock_item_id": item.ID,
					"requested":     input.Quantity,
					"qty_reserved":  item.QtyReserved,
				})
		}
		if input.Quantity > item.QtyOnHand {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "shipment exceeds on-hand stock").
				WithDetails(map[string]any{
					"stock_item_id": item.ID,
					"requested":     input.Quantity,
					"qty_on_hand":   item.QtyOnHand,
				})
		}

		onHand := item.QtyOnHand - input.Quantity
		reserved := item.QtyReserved - input.Quantity

		return &itemChange{
			onHand:   onHand,
			reserved: reserved,
			movement: models.StockMovement{
				QuantityDelta: -input.Quantity,
				Originator:    enums.MovementOriginatorShipment,
				OriginatorID:  input.OriginatorID,
				Reason:        optionalReason(input.Reason),
			},
			event: &outbox.DomainEvent{
				EventType:     enums.EventStockAdjusted,
				AggregateType: enums.AggregateStockItem,
				AggregateID:   item.ID,
				Version:       1,
				Data: payloads.StockAdjustedEvent{
					StockItemID:     item.ID,
					VariantID:       item.VariantID,
					StockLocationID: item.StockLocationID,
					QuantityDelta:   -input.Quantity,
					QtyOnHand:       onHand,
					QtyReserved:     reserved,
					Originator:      enums.MovementOriginatorShipment,
					Reason:          input.Reason,
				},
			},
		}, nil
	}
}

// fillBackordersTx promotes backordered unit blocks while uncommitted
// on-hand capacity remains. The listing is the snapshot; the loop never
// re-queries it, so blocks promoted mid-pass cannot be visited twice.
func (s *service) fillBackordersTx(ctx context.Context, tx *gorm.DB, item *models.StockItem) (*BackorderFillSummary, error) {
	summary := &BackorderFillSummary{
		StockItemID:     item.ID,
		VariantID:       item.VariantID,
		StockLocationID: item.StockLocationID,
	}

	units, err := s.filler.ListBackordered(ctx, tx, item.VariantID, item.StockLocationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list backordered units")
	}
	if len(units) == 0 {
		return summary, nil
	}

	backordered := 0
	for _, unit := range units {
		backordered += unit.Quantity
	}
	summary.RemainingBackordered = backordered

	// On-hand already claimed by promoted units is reserved minus the
	// backordered tail; only the rest can fill.
	capacity := item.QtyOnHand - (item.QtyReserved - backordered)
	if capacity <= 0 {
		return summary, nil
	}

	for _, unit := range units {
		if capacity == 0 {
			break
		}
		fill := unit.Quantity
		if fill > capacity {
			fill = capacity
		}
		if err := s.filler.Fill(ctx, tx, unit.ID, fill); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fill backordered unit")
		}
		capacity -= fill
		summary.FilledQuantity += fill
		summary.FilledBlocks++
	}
	summary.RemainingBackordered = backordered - summary.FilledQuantity

	if summary.FilledQuantity > 0 {
		event := outbox.DomainEvent{
			EventType:     enums.EventBackorderProcessed,
			AggregateType: enums.AggregateStockItem,
			AggregateID:   item.ID,
			Version:       1,
			Data: payloads.BackorderProcessedEvent{
				StockItemID:          item.ID,
				VariantID:            item.VariantID,
				StockLocationID:      item.StockLocationID,
				FilledQuantity:       summary.FilledQuantity,
				RemainingBackordered: summary.RemainingBackordered,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue backorder event")
		}
	}
	return summary, nil
}

func validateAdjustInput(input *AdjustInput) error {
	if input.StockItemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock item id required")
	}
	if input.QuantityDelta == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity delta must be non-zero")
	}
	if input.Originator == "" {
		input.Originator = enums.MovementOriginatorAdjustment
	}
	switch input.Originator {
	case enums.MovementOriginatorAdjustment, enums.MovementOriginatorTransfer, enums.MovementOriginatorReceipt:
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("originator %q not allowed for adjustments", input.Originator))
	}
}

func validateQuantityInput(stockItemID uuid.UUID, quantity int) error {
	if stockItemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock item id required")
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return nil
}

func optionalReason(reason string) *string {
	if reason == "" {
		return nil
	}
	return &reason
}
