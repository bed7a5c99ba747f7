package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderco/stockroom-backend/internal/sequences"
	"github.com/calderco/stockroom-backend/internal/stock"
	"github.com/calderco/stockroom-backend/internal/units"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	pkgerrors "github.com/calderco/stockroom-backend/pkg/errors"
)

// SetDelivery applies the fulfillment policy's placement decision: which
// location ships which line items and what each shipment costs. It runs in
// two phases inside one transaction. The plan phase validates coverage and
// stock for every leg and accumulates failures without touching anything;
// the execute phase creates shipments, reserves stock and commits inventory
// unit blocks. A failed plan therefore leaves no shipments and no
// reservations behind.
func (s *service) SetDelivery(ctx context.Context, orderID uuid.UUID, input SetDeliveryInput) (*models.Order, error) {
	if len(input.Shipments) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one shipment required")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.State != enums.OrderStateDelivery {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not in the delivery step")
		}
		if order.Digital() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "digital orders have no delivery")
		}
		if activeShipments(order) > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery already selected")
		}

		plan, err := s.planDelivery(ctx, tx, order, input)
		if err != nil {
			return err
		}
		if err := s.executeDelivery(ctx, tx, repo, order, plan); err != nil {
			return err
		}

		refreshed, err := s.recomputeTotals(ctx, repo, order.ID)
		if err != nil {
			return err
		}
		result = refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// planDelivery checks the placement decision against the order and against
// stock, collecting every problem before reporting. Structural errors in the
// decision itself come back as a validation error; stock shortfalls as an
// insufficient stock error listing each blocked line.
func (s *service) planDelivery(ctx context.Context, tx *gorm.DB, order *models.Order, input SetDeliveryInput) (*deliveryPlan, error) {
	lines := map[uuid.UUID]*models.LineItem{}
	for i := range order.LineItems {
		lines[order.LineItems[i].ID] = &order.LineItems[i]
	}

	var badPlacements []map[string]any
	placed := map[uuid.UUID]bool{}
	for i, shipment := range input.Shipments {
		if shipment.StockLocationID == uuid.Nil {
			badPlacements = append(badPlacements, map[string]any{"index": i, "reason": "stock location required"})
		}
		if shipment.CostCents < 0 {
			badPlacements = append(badPlacements, map[string]any{"index": i, "reason": "cost cannot be negative"})
		}
		if len(shipment.LineItemIDs) == 0 {
			badPlacements = append(badPlacements, map[string]any{"index": i, "reason": "shipment has no line items"})
		}
		for _, lineItemID := range shipment.LineItemIDs {
			item, ok := lines[lineItemID]
			switch {
			case !ok:
				badPlacements = append(badPlacements, map[string]any{"index": i, "line_item_id": lineItemID, "reason": "line item not on order"})
			case item.Digital:
				badPlacements = append(badPlacements, map[string]any{"index": i, "line_item_id": lineItemID, "reason": "digital line items do not ship"})
			case placed[lineItemID]:
				badPlacements = append(badPlacements, map[string]any{"index": i, "line_item_id": lineItemID, "reason": "line item placed twice"})
			default:
				placed[lineItemID] = true
			}
		}
	}
	for id, item := range lines {
		if !item.Digital && !placed[id] {
			badPlacements = append(badPlacements, map[string]any{"line_item_id": id, "reason": "line item not placed"})
		}
	}
	if len(badPlacements) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "placement decision does not cover the order").
			WithDetails(map[string]any{"placements": badPlacements})
	}

	stockRepo := s.stockRepo.WithTx(tx)
	var failures []PlacementFailure
	plan := &deliveryPlan{}
	for _, planned := range input.Shipments {
		sp := shipmentPlan{locationID: planned.StockLocationID, costCents: planned.CostCents}
		for _, lineItemID := range planned.LineItemIDs {
			line := lines[lineItemID]
			item, err := stockRepo.FindByVariantAndLocation(ctx, line.VariantID, planned.StockLocationID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					failures = append(failures, PlacementFailure{
						LineItemID: line.ID,
						VariantID:  line.VariantID,
						Requested:  line.Quantity,
						Reason:     "variant not stocked at location",
					})
					continue
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up stock item")
			}

			available := item.Available()
			if line.Quantity > available && !item.Backorderable {
				failures = append(failures, PlacementFailure{
					LineItemID: line.ID,
					VariantID:  line.VariantID,
					Requested:  line.Quantity,
					Available:  available,
					Reason:     "insufficient stock",
				})
				continue
			}

			backordered := line.Quantity - clamp(available, 0, line.Quantity)
			sp.legs = append(sp.legs, deliveryLeg{
				lineItem:    line,
				item:        item,
				locationID:  planned.StockLocationID,
				backordered: backordered,
			})
		}
		plan.shipments = append(plan.shipments, sp)
		plan.totalCost += planned.CostCents
	}
	if len(failures) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "placement decision exceeds available stock").
			WithDetails(map[string]any{"failures": failures})
	}
	return plan, nil
}

// executeDelivery turns a validated plan into rows: one shipment per leg
// group, a reservation per line and the inventory unit blocks that track
// fulfillment from here on.
func (s *service) executeDelivery(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, plan *deliveryPlan) error {
	shipments := make([]models.Shipment, 0, len(plan.shipments))
	for i := range plan.shipments {
		number, err := s.sequences.NextNumber(ctx, tx, sequences.KindShipment)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign shipment number")
		}
		shipments = append(shipments, models.Shipment{
			ID:              uuid.New(),
			OrderID:         order.ID,
			Number:          number,
			StockLocationID: plan.shipments[i].locationID,
			State:           enums.ShipmentStatePending,
			CostCents:       plan.shipments[i].costCents,
		})
	}
	if err := repo.CreateShipments(ctx, shipments); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipments")
	}

	for i, sp := range plan.shipments {
		shipmentID := shipments[i].ID
		for _, leg := range sp.legs {
			_, err := s.stock.ReserveTx(ctx, tx, stock.ReserveInput{
				StockItemID:  leg.item.ID,
				Quantity:     leg.lineItem.Quantity,
				OriginatorID: &order.ID,
				Reason:       fmt.Sprintf("order %s", order.Number),
			})
			if err != nil {
				return err
			}

			locationID := leg.locationID
			_, err = s.units.CreateForLineItemTx(ctx, tx, units.CreateForLineItemInput{
				OrderID:         order.ID,
				LineItemID:      leg.lineItem.ID,
				VariantID:       leg.lineItem.VariantID,
				StockLocationID: &locationID,
				ShipmentID:      &shipmentID,
				Quantity:        leg.lineItem.Quantity,
				BackorderedQty:  leg.backordered,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
