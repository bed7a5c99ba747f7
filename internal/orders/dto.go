package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	"github.com/calderco/stockroom-backend/pkg/types"
)

// CreateOrderInput opens a new cart.
type CreateOrderInput struct {
	Currency            enums.Currency
	Email               *string
	SpecialInstructions *string
}

// AddLineItemInput carries the catalog snapshot for a new line. The caller
// owns catalog lookups; the engine only records what it is told the variant
// cost at this moment.
type AddLineItemInput struct {
	VariantID      uuid.UUID
	Name           string
	SKU            string
	Quantity       int
	UnitPriceCents int
	Digital        bool
}

// SetAddressesInput stores the shipping and billing addresses. Both are
// required for physical orders before the address step can be left.
type SetAddressesInput struct {
	Email       *string
	ShipAddress *types.Address
	BillAddress *types.Address
}

// ShipmentPlanInput is one leg of the placement decision: which location
// fulfills which line items, and what that shipment costs.
type ShipmentPlanInput struct {
	StockLocationID uuid.UUID
	CostCents       int
	LineItemIDs     []uuid.UUID
}

// SetDeliveryInput applies the fulfillment policy's placement decision to a
// physical order in the delivery step.
type SetDeliveryInput struct {
	Shipments []ShipmentPlanInput
}

// AddAdjustmentInput applies a labeled credit (negative) or charge
// (positive) to the order total.
type AddAdjustmentInput struct {
	Label       string
	AmountCents int
}

// RecordPaymentInput records money promised against the order. Completion
// is a separate step driven by the gateway integration.
type RecordPaymentInput struct {
	AmountCents int
	Reference   *string
}

// PlacementFailure describes one line item the placement decision could not
// cover with stock.
type PlacementFailure struct {
	LineItemID uuid.UUID `json:"line_item_id"`
	VariantID  uuid.UUID `json:"variant_id"`
	Requested  int       `json:"requested"`
	Available  int       `json:"available"`
	Reason     string    `json:"reason"`
}

// deliveryLeg pairs a planned line item with its resolved stock item and
// the backordered tail the reservation will produce.
type deliveryLeg struct {
	lineItem    *models.LineItem
	item        *models.StockItem
	locationID  uuid.UUID
	backordered int
}

// deliveryPlan is the validated placement decision, ready to execute.
type deliveryPlan struct {
	shipments []shipmentPlan
	totalCost int
}

type shipmentPlan struct {
	locationID uuid.UUID
	costCents  int
	legs       []deliveryLeg
}

// LineItemDTO renders one order line.
type LineItemDTO struct {
	ID             uuid.UUID `json:"id"`
	VariantID      uuid.UUID `json:"variant_id"`
	Name           string    `json:"name"`
	SKU            string    `json:"sku,omitempty"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unit_price_cents"`
	TotalCents     int       `json:"total_cents"`
	Digital        bool      `json:"digital"`
}

// PaymentDTO renders one recorded payment.
type PaymentDTO struct {
	ID            uuid.UUID           `json:"id"`
	AmountCents   int                 `json:"amount_cents"`
	DisplayAmount string              `json:"display_amount"`
	Status        enums.PaymentStatus `json:"status"`
	Reference     *string             `json:"reference,omitempty"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
}

// ShipmentDTO renders one planned or dispatched shipment.
type ShipmentDTO struct {
	ID              uuid.UUID           `json:"id"`
	Number          string              `json:"number"`
	StockLocationID uuid.UUID           `json:"stock_location_id"`
	State           enums.ShipmentState `json:"state"`
	CostCents       int                 `json:"cost_cents"`
	Tracking        *string             `json:"tracking,omitempty"`
	ShippedAt       *time.Time          `json:"shipped_at,omitempty"`
}

// AdjustmentDTO renders one order adjustment.
type AdjustmentDTO struct {
	ID          uuid.UUID `json:"id"`
	Label       string    `json:"label"`
	AmountCents int       `json:"amount_cents"`
	Eligible    bool      `json:"eligible"`
}

// OrderDTO is the detail rendering of an order. Money is carried in cents
// with decimal display strings alongside, so clients never do the shift.
type OrderDTO struct {
	ID                   uuid.UUID        `json:"id"`
	Number               string           `json:"number"`
	State                enums.OrderState `json:"state"`
	Currency             enums.Currency   `json:"currency"`
	Email                *string          `json:"email,omitempty"`
	ShipAddress          *types.Address   `json:"ship_address,omitempty"`
	BillAddress          *types.Address   `json:"bill_address,omitempty"`
	ItemTotalCents       int              `json:"item_total_cents"`
	ShipmentTotalCents   int              `json:"shipment_total_cents"`
	AdjustmentTotalCents int              `json:"adjustment_total_cents"`
	PaymentTotalCents    int              `json:"payment_total_cents"`
	TotalCents           int              `json:"total_cents"`
	DisplayItemTotal     string           `json:"display_item_total"`
	DisplayTotal         string           `json:"display_total"`
	Digital              bool             `json:"digital"`
	LineItems            []LineItemDTO    `json:"line_items"`
	Payments             []PaymentDTO     `json:"payments,omitempty"`
	Shipments            []ShipmentDTO    `json:"shipments,omitempty"`
	Adjustments          []AdjustmentDTO  `json:"adjustments,omitempty"`
	CompletedAt          *time.Time       `json:"completed_at,omitempty"`
	CanceledAt           *time.Time       `json:"canceled_at,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
}

// OrderSummaryDTO is the list rendering.
type OrderSummaryDTO struct {
	ID           uuid.UUID        `json:"id"`
	Number       string           `json:"number"`
	State        enums.OrderState `json:"state"`
	Currency     enums.Currency   `json:"currency"`
	TotalCents   int              `json:"total_cents"`
	DisplayTotal string           `json:"display_total"`
	ItemCount    int              `json:"item_count"`
	CreatedAt    time.Time        `json:"created_at"`
}

func displayCents(cents int) string {
	return decimal.NewFromInt(int64(cents)).Shift(-2).StringFixed(2)
}

// ToDTO renders the full aggregate.
func ToDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:                   order.ID,
		Number:               order.Number,
		State:                order.State,
		Currency:             order.Currency,
		Email:                order.Email,
		ShipAddress:          order.ShipAddress,
		BillAddress:          order.BillAddress,
		ItemTotalCents:       order.ItemTotalCents,
		ShipmentTotalCents:   order.ShipmentTotalCents,
		AdjustmentTotalCents: order.AdjustmentTotalCents,
		PaymentTotalCents:    order.PaymentTotalCents,
		TotalCents:           order.TotalCents,
		DisplayItemTotal:     displayCents(order.ItemTotalCents),
		DisplayTotal:         displayCents(order.TotalCents),
		Digital:              order.Digital(),
		CompletedAt:          order.CompletedAt,
		CanceledAt:           order.CanceledAt,
		CreatedAt:            order.CreatedAt,
	}
	for _, item := range order.LineItems {
		dto.LineItems = append(dto.LineItems, LineItemDTO{
			ID:             item.ID,
			VariantID:      item.VariantID,
			Name:           item.Name,
			SKU:            item.SKU,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
			Digital:        item.Digital,
		})
	}
	for _, payment := range order.Payments {
		dto.Payments = append(dto.Payments, PaymentDTO{
			ID:            payment.ID,
			AmountCents:   payment.AmountCents,
			DisplayAmount: displayCents(payment.AmountCents),
			Status:        payment.Status,
			Reference:     payment.Reference,
			CompletedAt:   payment.CompletedAt,
		})
	}
	for _, shipment := range order.Shipments {
		dto.Shipments = append(dto.Shipments, ShipmentDTO{
			ID:              shipment.ID,
			Number:          shipment.Number,
			StockLocationID: shipment.StockLocationID,
			State:           shipment.State,
			CostCents:       shipment.CostCents,
			Tracking:        shipment.Tracking,
			ShippedAt:       shipment.ShippedAt,
		})
	}
	for _, adjustment := range order.Adjustments {
		dto.Adjustments = append(dto.Adjustments, AdjustmentDTO{
			ID:          adjustment.ID,
			Label:       adjustment.Label,
			AmountCents: adjustment.AmountCents,
			Eligible:    adjustment.Eligible,
		})
	}
	return dto
}

// ToPaymentDTO renders a single payment row.
func ToPaymentDTO(payment *models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:            payment.ID,
		AmountCents:   payment.AmountCents,
		DisplayAmount: displayCents(payment.AmountCents),
		Status:        payment.Status,
		Reference:     payment.Reference,
		CompletedAt:   payment.CompletedAt,
	}
}

// ToSummaryDTO renders the list row.
func ToSummaryDTO(order *models.Order) OrderSummaryDTO {
	count := 0
	for _, item := range order.LineItems {
		count += item.Quantity
	}
	return OrderSummaryDTO{
		ID:           order.ID,
		Number:       order.Number,
		State:        order.State,
		Currency:     order.Currency,
		TotalCents:   order.TotalCents,
		DisplayTotal: displayCents(order.TotalCents),
		ItemCount:    count,
		CreatedAt:    order.CreatedAt,
	}
}
