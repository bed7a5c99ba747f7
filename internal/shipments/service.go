package shipments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderco/stockroom-backend/internal/stock"
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

type service struct {
	repo      Repository
	units     unitsEngine
	stock     stockEngine
	stockRepo stockReader
	tx        txRunner
	outbox    outboxPublisher
}

// NewService builds a shipments service with the required dependencies.
func NewService(repo Repository, unitsSvc unitsEngine, stockSvc stockEngine, stockRepo stockReader, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipments repository required")
	}
	if unitsSvc == nil {
		return nil, fmt.Errorf("units service required")
	}
	if stockSvc == nil {
		return nil, fmt.Errorf("stock service required")
	}
	if stockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:      repo,
		units:     unitsSvc,
		stock:     stockSvc,
		stockRepo: stockRepo,
		tx:        tx,
		outbox:    outboxSvc,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	return s.load(ctx, s.repo, id)
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Shipment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	shipments, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipments")
	}
	return shipments, nil
}

// Ready stages a pending shipment for dispatch. Every block must be picked:
// a single backordered block keeps the shipment pending, and a shipment
// whose every block was voided has nothing left to stage.
func (s *service) Ready(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var result *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if shipment.State == enums.ShipmentStateReady {
			result = shipment
			return nil
		}
		if shipment.State != enums.ShipmentStatePending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("shipment is %s and cannot stage", shipment.State))
		}

		onHand := 0
		for _, unit := range shipment.Units {
			switch unit.State {
			case enums.InventoryUnitStateBackordered:
				return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment still has backordered units")
			case enums.InventoryUnitStateOnHand:
				onHand += unit.Quantity
			}
		}
		if onHand == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment has no units to stage")
		}

		if err := repo.Update(ctx, shipment.ID, map[string]any{"state": enums.ShipmentStateReady}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stage shipment")
		}
		shipment.State = enums.ShipmentStateReady

		event := shipmentEvent(enums.EventShipmentReady, shipment.ID, payloads.ShipmentReadyEvent{
			ShipmentID: shipment.ID,
			OrderID:    shipment.OrderID,
			Number:     shipment.Number,
		})
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue shipment ready event")
		}
		result = shipment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Ship hands a staged shipment to the carrier: its unit blocks move to
// shipped and the reserved counters at the shipment's location burn down in
// the same transaction, one confirm per variant.
func (s *service) Ship(ctx context.Context, id uuid.UUID, tracking *string) (*models.Shipment, error) {
	var result *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if shipment.State != enums.ShipmentStateReady {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("shipment is %s and cannot ship", shipment.State))
		}

		shipped, err := s.units.ShipByShipmentTx(ctx, tx, shipment.ID)
		if err != nil {
			return err
		}
		if len(shipped) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment has no units to ship")
		}

		totals := map[uuid.UUID]int{}
		var variants []uuid.UUID
		for _, unit := range shipped {
			if _, seen := totals[unit.VariantID]; !seen {
				variants = append(variants, unit.VariantID)
			}
			totals[unit.VariantID] += unit.Quantity
		}

		stockRepo := s.stockRepo.WithTx(tx)
		for _, variantID := range variants {
			item, err := stockRepo.FindByVariantAndLocation(ctx, variantID, shipment.StockLocationID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeStateConflict, "variant has no stock item at the shipment location")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up stock item")
			}
			if _, err := s.stock.ConfirmShipmentTx(ctx, tx, stock.ConfirmShipmentInput{
				StockItemID:  item.ID,
				Quantity:     totals[variantID],
				OriginatorID: &shipment.ID,
				Reason:       fmt.Sprintf("shipment %s", shipment.Number),
			}); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"state":      enums.ShipmentStateShipped,
			"shipped_at": now,
		}
		if tracking != nil {
			updates["tracking"] = *tracking
		}
		if err := repo.Update(ctx, shipment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ship shipment")
		}
		shipment.State = enums.ShipmentStateShipped
		shipment.ShippedAt = &now
		if tracking != nil {
			shipment.Tracking = tracking
		}

		trackingValue := ""
		if tracking != nil {
			trackingValue = *tracking
		}
		event := shipmentEvent(enums.EventShipmentShipped, shipment.ID, payloads.ShipmentShippedEvent{
			ShipmentID: shipment.ID,
			OrderID:    shipment.OrderID,
			Number:     shipment.Number,
			Tracking:   trackingValue,
			ShippedAt:  now,
		})
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue shipment shipped event")
		}
		result = shipment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Shipment, error) {
	shipment, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	return shipment, nil
}

func shipmentEvent(eventType enums.OutboxEventType, shipmentID uuid.UUID, data any) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateShipment,
		AggregateID:   shipmentID,
		Version:       1,
		Data:          data,
	}
}
