package units

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	pkgerrors "github.com/calderco/stockroom-backend/pkg/errors"
	"github.com/calderco/stockroom-backend/pkg/outbox"
	"github.com/calderco/stockroom-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// unitTransitions lists the legal edges of the unit lifecycle. Shipped and
// canceled are terminal except for the post-sale return edge owned by the
// returns flow.
var unitTransitions = map[enums.InventoryUnitState][]enums.InventoryUnitState{
	enums.InventoryUnitStateBackordered: {enums.InventoryUnitStateOnHand, enums.InventoryUnitStateCanceled},
	enums.InventoryUnitStateOnHand:      {enums.InventoryUnitStateShipped, enums.InventoryUnitStateCanceled},
	enums.InventoryUnitStateShipped:     {enums.InventoryUnitStateReturned},
}

func canTransition(from, to enums.InventoryUnitState) bool {
	for _, next := range unitTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds an inventory units service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("units repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) Get(ctx context.Context, unitID uuid.UUID) (*models.InventoryUnit, error) {
	if unitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory unit id required")
	}
	return s.load(ctx, s.repo, unitID)
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryUnit, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	units, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory units")
	}
	return units, nil
}

func (s *service) ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]models.InventoryUnit, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	units, err := s.repo.ListByShipment(ctx, shipmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory units")
	}
	return units, nil
}

func (s *service) CountBackordered(ctx context.Context) (int64, error) {
	count, err := s.repo.CountBackordered(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count backordered units")
	}
	return count, nil
}

func (s *service) CreateForLineItemTx(ctx context.Context, tx *gorm.DB, input CreateForLineItemInput) ([]models.InventoryUnit, error) {
	if input.OrderID == uuid.Nil || input.LineItemID == uuid.Nil || input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order, line item and variant ids required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.BackorderedQty < 0 || input.BackorderedQty > input.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "backordered quantity out of range")
	}
	if input.BackorderedQty > 0 && (input.StockLocationID == nil || *input.StockLocationID == uuid.Nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "backordered units need a stock location")
	}

	blocks := make([]models.InventoryUnit, 0, 2)
	if onHand := input.Quantity - input.BackorderedQty; onHand > 0 {
		blocks = append(blocks, models.InventoryUnit{
			ID:              uuid.New(),
			OrderID:         input.OrderID,
			LineItemID:      input.LineItemID,
			VariantID:       input.VariantID,
			StockLocationID: input.StockLocationID,
			ShipmentID:      input.ShipmentID,
			State:           enums.InventoryUnitStateOnHand,
			Quantity:        onHand,
		})
	}
	if input.BackorderedQty > 0 {
		blocks = append(blocks, models.InventoryUnit{
			ID:              uuid.New(),
			OrderID:         input.OrderID,
			LineItemID:      input.LineItemID,
			VariantID:       input.VariantID,
			StockLocationID: input.StockLocationID,
			ShipmentID:      input.ShipmentID,
			State:           enums.InventoryUnitStateBackordered,
			Quantity:        input.BackorderedQty,
		})
	}

	if err := s.repo.WithTx(tx).CreateBatch(ctx, blocks); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory units")
	}
	return blocks, nil
}

func (s *service) FillBackorder(ctx context.Context, unitID uuid.UUID) (*models.InventoryUnit, error) {
	if unitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory unit id required")
	}
	var filled *models.InventoryUnit
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		unit, err := s.load(ctx, repo, unitID)
		if err != nil {
			return err
		}
		promoted, err := s.fillTx(ctx, tx, repo, unit, unit.Quantity)
		if err != nil {
			return err
		}
		filled = promoted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filled, nil
}

func (s *service) ListBackordered(ctx context.Context, tx *gorm.DB, variantID, locationID uuid.UUID) ([]models.InventoryUnit, error) {
	return s.repo.WithTx(tx).ListBackordered(ctx, variantID, locationID)
}

func (s *service) Fill(ctx context.Context, tx *gorm.DB, unitID uuid.UUID, quantity int) error {
	repo := s.repo.WithTx(tx)
	unit, err := s.load(ctx, repo, unitID)
	if err != nil {
		return err
	}
	if quantity <= 0 || quantity > unit.Quantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "fill quantity out of range")
	}
	_, err = s.fillTx(ctx, tx, repo, unit, quantity)
	return err
}

// fillTx promotes quantity units of a backordered block to on-hand. A
// partial fill splits the block: the promoted portion becomes a new
// on-hand block so the remainder keeps its place in the arrival queue.
func (s *service) fillTx(ctx context.Context, tx *gorm.DB, repo Repository, unit *models.InventoryUnit, quantity int) (*models.InventoryUnit, error) {
	if unit.State != enums.InventoryUnitStateBackordered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("unit is %s, only backordered units fill", unit.State))
	}

	promoted := unit
	if quantity < unit.Quantity {
		if err := repo.Update(ctx, unit.ID, map[string]any{"quantity": unit.Quantity - quantity}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shrink backordered block")
		}
		split := models.InventoryUnit{
			ID:              uuid.New(),
			OrderID:         unit.OrderID,
			LineItemID:      unit.LineItemID,
			VariantID:       unit.VariantID,
			StockLocationID: unit.StockLocationID,
			ShipmentID:      unit.ShipmentID,
			State:           enums.InventoryUnitStateOnHand,
			Quantity:        quantity,
		}
		if err := repo.Create(ctx, &split); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promoted block")
		}
		promoted = &split
	} else {
		if err := repo.Update(ctx, unit.ID, map[string]any{"state": enums.InventoryUnitStateOnHand}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote backordered block")
		}
		unit.State = enums.InventoryUnitStateOnHand
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventUnitBackorderFilled,
		AggregateType: enums.AggregateInventoryUnit,
		AggregateID:   promoted.ID,
		Version:       1,
		Data: payloads.UnitBackorderFilledEvent{
			UnitID:    promoted.ID,
			OrderID:   promoted.OrderID,
			VariantID: promoted.VariantID,
			Quantity:  quantity,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue backorder filled event")
	}
	return promoted, nil
}

func (s *service) Ship(ctx context.Context, unitID, shipmentID uuid.UUID) (*models.InventoryUnit, error) {
	var shipped *models.InventoryUnit
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		unit, err := s.ShipTx(ctx, tx, unitID, shipmentID)
		if err != nil {
			return err
		}
		shipped = unit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shipped, nil
}

func (s *service) ShipTx(ctx context.Context, tx *gorm.DB, unitID, shipmentID uuid.UUID) (*models.InventoryUnit, error) {
	if unitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory unit id required")
	}
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	repo := s.repo.WithTx(tx)
	unit, err := s.load(ctx, repo, unitID)
	if err != nil {
		return nil, err
	}
	return s.shipTx(ctx, tx, repo, unit, shipmentID)
}

func (s *service) ShipByShipmentTx(ctx context.Context, tx *gorm.DB, shipmentID uuid.UUID) ([]models.InventoryUnit, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	repo := s.repo.WithTx(tx)
	unitsForShipment, err := repo.ListByShipment(ctx, shipmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipment units")
	}
	shipped := make([]models.InventoryUnit, 0, len(unitsForShipment))
	for i := range unitsForShipment {
		unit := unitsForShipment[i]
		// Voided blocks stay behind; the shipment readiness check already
		// refused any still-backordered block.
		if unit.State == enums.InventoryUnitStateCanceled {
			continue
		}
		updated, err := s.shipTx(ctx, tx, repo, &unit, shipmentID)
		if err != nil {
			return nil, err
		}
		shipped = append(shipped, *updated)
	}
	return shipped, nil
}

func (s *service) shipTx(ctx context.Context, tx *gorm.DB, repo Repository, unit *models.InventoryUnit, shipmentID uuid.UUID) (*models.InventoryUnit, error) {
	if unit.State == enums.InventoryUnitStateBackordered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "backordered units cannot ship")
	}
	if !canTransition(unit.State, enums.InventoryUnitStateShipped) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("unit cannot ship from %s", unit.State))
	}
	if unit.ShipmentID != nil && *unit.ShipmentID != shipmentID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "unit assigned to another shipment")
	}

	updates := map[string]any{
		"state":       enums.InventoryUnitStateShipped,
		"shipment_id": shipmentID,
	}
	if err := repo.Update(ctx, unit.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ship inventory unit")
	}
	unit.State = enums.InventoryUnitStateShipped
	unit.ShipmentID = &shipmentID

	event := outbox.DomainEvent{
		EventType:     enums.EventUnitShipped,
		AggregateType: enums.AggregateInventoryUnit,
		AggregateID:   unit.ID,
		Version:       1,
		Data: payloads.UnitShippedEvent{
			UnitID:     unit.ID,
			OrderID:    unit.OrderID,
			LineItemID: unit.LineItemID,
			VariantID:  unit.VariantID,
			ShipmentID: unit.ShipmentID,
			Quantity:   unit.Quantity,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue unit shipped event")
	}
	return unit, nil
}

func (s *service) Cancel(ctx context.Context, unitID uuid.UUID) (*models.InventoryUnit, error) {
	var canceled *models.InventoryUnit
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		unit, err := s.CancelTx(ctx, tx, unitID)
		if err != nil {
			return err
		}
		canceled = unit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return canceled, nil
}

func (s *service) CancelTx(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) (*models.InventoryUnit, error) {
	if unitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory unit id required")
	}
	repo := s.repo.WithTx(tx)
	unit, err := s.load(ctx, repo, unitID)
	if err != nil {
		return nil, err
	}
	return s.cancelTx(ctx, tx, repo, unit)
}

// CancelForOrderTx voids every block still cancelable on the order. Shipped
// and returned blocks stay untouched; physical goods already gone need the
// returns flow, not a cancel.
func (s *service) CancelForOrderTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]models.InventoryUnit, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	repo := s.repo.WithTx(tx)
	unitsForOrder, err := repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order units")
	}
	canceled := make([]models.InventoryUnit, 0, len(unitsForOrder))
	for i := range unitsForOrder {
		unit := unitsForOrder[i]
		if !canTransition(unit.State, enums.InventoryUnitStateCanceled) {
			continue
		}
		updated, err := s.cancelTx(ctx, tx, repo, &unit)
		if err != nil {
			return nil, err
		}
		canceled = append(canceled, *updated)
	}
	return canceled, nil
}

func (s *service) cancelTx(ctx context.Context, tx *gorm.DB, repo Repository, unit *models.InventoryUnit) (*models.InventoryUnit, error) {
	if unit.State == enums.InventoryUnitStateCanceled {
		return unit, nil
	}
	if !canTransition(unit.State, enums.InventoryUnitStateCanceled) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("unit cannot cancel from %s", unit.State))
	}

	priorState := unit.State
	if err := repo.Update(ctx, unit.ID, map[string]any{"state": enums.InventoryUnitStateCanceled}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel inventory unit")
	}
	unit.State = enums.InventoryUnitStateCanceled

	event := outbox.DomainEvent{
		EventType:     enums.EventUnitCanceled,
		AggregateType: enums.AggregateInventoryUnit,
		AggregateID:   unit.ID,
		Version:       1,
		Data: payloads.UnitCanceledEvent{
			UnitID:          unit.ID,
			OrderID:         unit.OrderID,
			VariantID:       unit.VariantID,
			StockLocationID: unit.StockLocationID,
			Quantity:        unit.Quantity,
			PriorState:      priorState,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue unit canceled event")
	}
	return unit, nil
}

func (s *service) Return(ctx context.Context, unitID uuid.UUID) (*models.InventoryUnit, error) {
	if unitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory unit id required")
	}
	var returned *models.InventoryUnit
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		unit, err := s.load(ctx, repo, unitID)
		if err != nil {
			return err
		}
		if !canTransition(unit.State, enums.InventoryUnitStateReturned) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("unit cannot return from %s", unit.State))
		}
		if err := repo.Update(ctx, unit.ID, map[string]any{"state": enums.InventoryUnitStateReturned}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "return inventory unit")
		}
		unit.State = enums.InventoryUnitStateReturned

		event := outbox.DomainEvent{
			EventType:     enums.EventUnitReturned,
			AggregateType: enums.AggregateInventoryUnit,
			AggregateID:   unit.ID,
			Version:       1,
			Data: payloads.UnitReturnedEvent{
				UnitID:    unit.ID,
				OrderID:   unit.OrderID,
				VariantID: unit.VariantID,
				Quantity:  unit.Quantity,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue unit returned event")
		}
		returned = unit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return returned, nil
}

func (s *service) load(ctx context.Context, repo Repository, unitID uuid.UUID) (*models.InventoryUnit, error) {
	unit, err := repo.FindByID(ctx, unitID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory unit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory unit")
	}
	return unit, nil
}
