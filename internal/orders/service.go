package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderco/stockroom-backend/internal/sequences"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	pkgerrors "github.com/calderco/stockroom-backend/pkg/errors"
	"github.com/calderco/stockroom-backend/pkg/outbox"
	"github.com/calderco/stockroom-backend/pkg/outbox/payloads"
	"github.com/calderco/stockroom-backend/pkg/pagination"
	"github.com/calderco/stockroom-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo      Repository
	stock     stockEngine
	stockRepo stockReader
	units     unitsEngine
	sequences sequences.Service
	tx        txRunner
	outbox    outboxPublisher
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, stockSvc stockEngine, stockRepo stockReader, unitsSvc unitsEngine, seq sequences.Service, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if stockSvc == nil {
		return nil, fmt.Errorf("stock service required")
	}
	if stockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if unitsSvc == nil {
		return nil, fmt.Errorf("units service required")
	}
	if seq == nil {
		return nil, fmt.Errorf("sequence service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:      repo,
		stock:     stockSvc,
		stockRepo: stockRepo,
		units:     unitsSvc,
		sequences: seq,
		tx:        tx,
		outbox:    outboxSvc,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency")
	}

	order := &models.Order{
		ID:                  uuid.New(),
		State:               enums.OrderStateCart,
		Currency:            currency,
		Email:               input.Email,
		SpecialInstructions: input.SpecialInstructions,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.sequences.NextNumber(ctx, tx, sequences.KindOrder)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign order number")
		}
		order.Number = number
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.load(ctx, s.repo, id)
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	page, cursor, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return page, cursor, nil
}

func (s *service) AddLineItem(ctx context.Context, orderID uuid.UUID, input AddLineItemInput) (*models.Order, error) {
	if input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item name required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.UnitPriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}

	return s.mutate(ctx, orderID, func(tx *gorm.DB, repo Repository, order *models.Order) error {
		if err := requireState(order, enums.OrderStateCart); err != nil {
			return err
		}
		for _, existing := range order.LineItems {
			if existing.VariantID == input.VariantID {
				return pkgerrors.New(pkgerrors.CodeConflict, "variant already in order; update its quantity")
			}
		}

		item := &models.LineItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			VariantID:      input.VariantID,
			Name:           strings.TrimSpace(input.Name),
			SKU:            strings.TrimSpace(input.SKU),
			Quantity:       input.Quantity,
			UnitPriceCents: input.UnitPriceCents,
			TotalCents:     input.Quantity * input.UnitPriceCents,
			Digital:        input.Digital,
		}
		if err := repo.CreateLineItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create line item")
		}

		event := orderEvent(enums.EventLineItemAdded, order.ID, payloads.LineItemAddedEvent{
			OrderID:        order.ID,
			LineItemID:     item.ID,
			VariantID:      item.VariantID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue line item added event")
		}
		return nil
	})
}

func (s *service) UpdateLineItemQuantity(ctx context.Context, orderID, lineItemID uuid.UUID, quantity int) (*models.Order, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return s.mutate(ctx, orderID, func(tx *gorm.DB, repo Repository, order *models.Order) error {
		if err := requireState(order, enums.OrderStateCart); err != nil {
			return err
		}
		item := findLineItem(order, lineItemID)
		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
		}
		updates := map[string]any{
			"quantity":    quantity,
			"total_cents": quantity * item.UnitPriceCents,
		}
		if err := repo.UpdateLineItem(ctx, item.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update line item")
		}
		return nil
	})
}

func (s *service) RemoveLineItem(ctx context.Context, orderID, lineItemID uuid.UUID) (*models.Order, error) {
	return s.mutate(ctx, orderID, func(tx *gorm.DB, repo Repository, order *models.Order) error {
		if err := requireState(order, enums.OrderStateCart); err != nil {
			return err
		}
		item := findLineItem(order, lineItemID)
		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
		}
		if err := repo.DeleteLineItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete line item")
		}

		event := orderEvent(enums.EventLineItemRemoved, order.ID, payloads.LineItemRemovedEvent{
			OrderID:    order.ID,
			LineItemID: item.ID,
			VariantID:  item.VariantID,
			Quantity:   item.Quantity,
		})
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue line item removed event")
		}
		return nil
	})
}

func (s *service) SetAddresses(ctx context.Context, orderID uuid.UUID, input SetAddressesInput) (*models.Order, error) {
	if input.ShipAddress == nil && input.BillAddress == nil && input.Email == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	if err := validateAddress(input.ShipAddress); err != nil {
		return nil, err
	}
	if err := validateAddress(input.BillAddress); err != nil {
		return nil, err
	}

	return s.mutate(ctx, orderID, func(tx *gorm.DB, repo Repository, order *models.Order) error {
		if order.State != enums.OrderStateCart && order.State != enums.OrderStateAddress {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "addresses are locked after delivery selection")
		}
		updates := map[string]any{}
		if input.Email != nil {
			updates["email"] = *input.Email
		}
		if input.ShipAddress != nil {
			updates["ship_address"] = *input.ShipAddress
		}
		if input.BillAddress != nil {
			updates["bill_address"] = *input.BillAddress
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update addresses")
		}
		return nil
	})
}

func (s *service) AddAdjustment(ctx context.Context, orderID uuid.UUID, input AddAdjustmentInput) (*models.Order, error) {
	if strings.TrimSpace(input.Label) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment label required")
	}
	if input.AmountCents == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment amount cannot be zero")
	}
	return s.mutate(ctx, orderID, func(tx *gorm.DB, repo Repository, order *models.Order) error {
		if order.State.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is closed")
		}
		adjustment := &models.OrderAdjustment{
			ID:          uuid.New(),
			OrderID:     order.ID,
			Label:       strings.TrimSpace(input.Label),
			AmountCents: input.AmountCents,
			Eligible:    true,
		}
		if err := repo.CreateAdjustment(ctx, adjustment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create adjustment")
		}
		return nil
	})
}

func (s *service) RecordPayment(ctx context.Context, orderID uuid.UUID, input RecordPaymentInput) (*models.Payment, error) {
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	var payment *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.State != enums.OrderStatePayment && order.State != enums.OrderStateConfirm {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payments are recorded in the payment step")
		}

		payment = &models.Payment{
			ID:          uuid.New(),
			OrderID:     order.ID,
			AmountCents: input.AmountCents,
			Status:      enums.PaymentStatusPending,
			Reference:   input.Reference,
		}
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}

		event := orderEvent(enums.EventPaymentRecorded, order.ID, payloads.PaymentRecordedEvent{
			OrderID:     order.ID,
			PaymentID:   payment.ID,
			AmountCents: payment.AmountCents,
		})
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue payment recorded event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// CompletePayment marks a recorded payment captured. The orchestration layer
// calls this after the gateway confirms; the engine only tracks the
// structural consequence for the payment >= total guards.
func (s *service) CompletePayment(ctx context.Context, orderID, paymentID uuid.UUID) (*models.Payment, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	var completed *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		payment := findPayment(order, paymentID)
		if payment == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		if payment.Status == enums.PaymentStatusCompleted {
			completed = payment
			return nil
		}
		if payment.Status != enums.PaymentStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("payment is %s and cannot complete", payment.Status))
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":       enums.PaymentStatusCompleted,
			"completed_at": now,
		}
		if err := repo.UpdatePayment(ctx, payment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete payment")
		}
		payment.Status = enums.PaymentStatusCompleted
		payment.CompletedAt = &now

		if _, err := s.recomputeTotals(ctx, repo, order.ID); err != nil {
			return err
		}

		event := orderEvent(enums.EventPaymentCompleted, order.ID, payloads.PaymentCompletedEvent{
			OrderID:     order.ID,
			PaymentID:   payment.ID,
			AmountCents: payment.AmountCents,
			CompletedAt: now,
		})
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue payment completed event")
		}
		completed = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// Next advances the order one step along the checkout progression.
func (s *service) Next(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var advanced *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		target, ok := nextState(order.State)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in %s has no next step", order.State))
		}
		if err := s.transition(ctx, tx, repo, order, target); err != nil {
			return err
		}
		advanced = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return advanced, nil
}

// Complete runs the confirm -> complete transition explicitly.
func (s *service) Complete(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var completed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.State != enums.OrderStateConfirm {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in %s cannot complete", order.State))
		}
		if err := s.transition(ctx, tx, repo, order, enums.OrderStateComplete); err != nil {
			return err
		}
		completed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// Cancel voids the order from any non-terminal state, cancels its remaining
// inventory unit blocks and undispatched shipments, and hands reservation
// cleanup to the release-inventory consumer via the canceled event.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	var canceled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.State == enums.OrderStateCanceled {
			canceled = order
			return nil
		}
		if order.State == enums.OrderStateComplete {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "completed orders cannot cancel")
		}

		if _, err := s.units.CancelForOrderTx(ctx, tx, order.ID); err != nil {
			return err
		}
		if err := repo.CancelShipments(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel shipments")
		}

		now := time.Now().UTC()
		from := order.State
		updates := map[string]any{
			"state":       enums.OrderStateCanceled,
			"canceled_at": now,
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		order.State = enums.OrderStateCanceled
		order.CanceledAt = &now

		stateEvent := orderEvent(enums.EventOrderStateChanged, order.ID, payloads.OrderStateChangedEvent{
			OrderID:   order.ID,
			Number:    order.Number,
			FromState: from,
			ToState:   enums.OrderStateCanceled,
		})
		if err := s.outbox.Emit(ctx, tx, stateEvent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue state changed event")
		}
		canceledEvent := orderEvent(enums.EventOrderCanceled, order.ID, payloads.OrderCanceledEvent{
			OrderID:    order.ID,
			Number:     order.Number,
			CanceledAt: now,
			Reason:     reason,
		})
		if err := s.outbox.Emit(ctx, tx, canceledEvent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order canceled event")
		}
		canceled = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return canceled, nil
}

// transition applies one guarded forward edge and emits the state change.
func (s *service) transition(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, target enums.OrderState) error {
	expected, ok := nextState(order.State)
	if !ok || expected != target {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move from %s to %s", order.State, target))
	}
	if err := checkGuard(order, target); err != nil {
		return err
	}

	from := order.State
	updates := map[string]any{"state": target}
	var completedAt time.Time
	if target == enums.OrderStateComplete {
		completedAt = time.Now().UTC()
		updates["completed_at"] = completedAt
	}
	if err := repo.Update(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance order state")
	}
	order.State = target
	if target == enums.OrderStateComplete {
		order.CompletedAt = &completedAt
	}

	stateEvent := orderEvent(enums.EventOrderStateChanged, order.ID, payloads.OrderStateChangedEvent{
		OrderID:   order.ID,
		Number:    order.Number,
		FromState: from,
		ToState:   target,
	})
	if err := s.outbox.Emit(ctx, tx, stateEvent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue state changed event")
	}

	if target == enums.OrderStateComplete {
		email := ""
		if order.Email != nil {
			email = *order.Email
		}
		completedEvent := orderEvent(enums.EventOrderCompleted, order.ID, payloads.OrderCompletedEvent{
			OrderID:       order.ID,
			Number:        order.Number,
			Email:         email,
			TotalCents:    order.TotalCents,
			LineItemCount: len(order.LineItems),
			CompletedAt:   completedAt,
		})
		if err := s.outbox.Emit(ctx, tx, completedEvent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order completed event")
		}
	}
	return nil
}

// checkGuard enforces the precondition of entering the target state.
func checkGuard(order *models.Order, target enums.OrderState) error {
	switch target {
	case enums.OrderStateAddress:
		if len(order.LineItems) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no line items")
		}
	case enums.OrderStateDelivery:
		if !order.Digital() && (order.ShipAddress == nil || order.BillAddress == nil) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipping and billing addresses required")
		}
	case enums.OrderStatePayment:
		if !order.Digital() && activeShipments(order) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "select delivery before payment")
		}
	case enums.OrderStateConfirm:
		if completedPayments(order) < order.TotalCents {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "recorded payments do not cover the order total")
		}
	case enums.OrderStateComplete:
		if completedPayments(order) < order.TotalCents {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "recorded payments do not cover the order total")
		}
		if !order.Digital() {
			for _, shipment := range order.Shipments {
				if shipment.State == enums.ShipmentStateCanceled {
					continue
				}
				if shipment.State != enums.ShipmentStateReady && shipment.State != enums.ShipmentStateShipped {
					return pkgerrors.New(pkgerrors.CodeStateConflict,
						fmt.Sprintf("shipment %s is still %s", shipment.Number, shipment.State))
				}
			}
		}
	}
	return nil
}

// mutate runs one aggregate mutation inside a transaction and recomputes
// totals afterwards; a total driven negative rolls the whole change back.
func (s *service) mutate(ctx context.Context, orderID uuid.UUID, fn func(tx *gorm.DB, repo Repository, order *models.Order) error) (*models.Order, error) {
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if err := fn(tx, repo, order); err != nil {
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

// recomputeTotals rebuilds every total from the aggregate's rows rather
// than trusting incremental arithmetic.
func (s *service) recomputeTotals(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, repo, orderID)
	if err != nil {
		return nil, err
	}

	itemTotal := 0
	for _, item := range order.LineItems {
		itemTotal += item.TotalCents
	}
	shipmentTotal := 0
	for _, shipment := range order.Shipments {
		if shipment.State == enums.ShipmentStateCanceled {
			continue
		}
		shipmentTotal += shipment.CostCents
	}
	adjustmentTotal := 0
	for _, adjustment := range order.Adjustments {
		if !adjustment.Eligible {
			continue
		}
		adjustmentTotal += adjustment.AmountCents
	}
	total := itemTotal + shipmentTotal + adjustmentTotal
	if total < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total cannot go negative")
	}

	updates := map[string]any{
		"item_total_cents":       itemTotal,
		"shipment_total_cents":   shipmentTotal,
		"adjustment_total_cents": adjustmentTotal,
		"payment_total_cents":    completedPayments(order),
		"total_cents":            total,
	}
	if err := repo.Update(ctx, order.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist totals")
	}
	order.ItemTotalCents = itemTotal
	order.ShipmentTotalCents = shipmentTotal
	order.AdjustmentTotalCents = adjustmentTotal
	order.PaymentTotalCents = completedPayments(order)
	order.TotalCents = total
	return order, nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func requireState(order *models.Order, state enums.OrderState) error {
	if order.State != state {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("operation allowed in %s only, order is %s", state, order.State))
	}
	return nil
}

func findLineItem(order *models.Order, id uuid.UUID) *models.LineItem {
	for i := range order.LineItems {
		if order.LineItems[i].ID == id {
			return &order.LineItems[i]
		}
	}
	return nil
}

func findPayment(order *models.Order, id uuid.UUID) *models.Payment {
	for i := range order.Payments {
		if order.Payments[i].ID == id {
			return &order.Payments[i]
		}
	}
	return nil
}

func completedPayments(order *models.Order) int {
	sum := 0
	for _, payment := range order.Payments {
		if payment.Status == enums.PaymentStatusCompleted {
			sum += payment.AmountCents
		}
	}
	return sum
}

func activeShipments(order *models.Order) int {
	count := 0
	for _, shipment := range order.Shipments {
		if shipment.State != enums.ShipmentStateCanceled {
			count++
		}
	}
	return count
}

func validateAddress(address *types.Address) error {
	if address == nil {
		return nil
	}
	if strings.TrimSpace(address.Line1) == "" ||
		strings.TrimSpace(address.City) == "" ||
		strings.TrimSpace(address.State) == "" ||
		strings.TrimSpace(address.PostalCode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address needs line1, city, state and postal code")
	}
	return nil
}

func orderEvent(eventType enums.OutboxEventType, orderID uuid.UUID, data any) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Version:       1,
		Data:          data,
	}
}
