package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderco/stockroom-backend/internal/stock"
	"github.com/calderco/stockroom-backend/internal/units"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	"github.com/calderco/stockroom-backend/pkg/pagination"
)

// Repository defines persistence operations for the order aggregate and the
// rows it owns.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params) ([]models.Order, *pagination.Cursor, error)
	FindCartsBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error

	CreateLineItem(ctx context.Context, item *models.LineItem) error
	UpdateLineItem(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteLineItem(ctx context.Context, id uuid.UUID) error

	CreatePayment(ctx context.Context, payment *models.Payment) error
	UpdatePayment(ctx context.Context, id uuid.UUID, updates map[string]any) error

	CreateAdjustment(ctx context.Context, adjustment *models.OrderAdjustment) error

	CreateShipments(ctx context.Context, shipments []models.Shipment) error
	CancelShipments(ctx context.Context, orderID uuid.UUID) error
}

// stockEngine is the slice of the stock service the delivery step drives:
// reservations applied inside the order's transaction.
type stockEngine interface {
	ReserveTx(ctx context.Context, tx *gorm.DB, input stock.ReserveInput) (*models.StockItem, error)
}

// stockReader resolves stock items during delivery planning. Satisfied by
// stock.Repository.
type stockReader interface {
	WithTx(tx *gorm.DB) stock.Repository
}

// unitsEngine commits and voids inventory unit blocks alongside the order.
type unitsEngine interface {
	CreateForLineItemTx(ctx context.Context, tx *gorm.DB, input units.CreateForLineItemInput) ([]models.InventoryUnit, error)
	CancelForOrderTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]models.InventoryUnit, error)
}

// Service walks orders through cart -> address -> delivery -> payment ->
// confirm -> complete. The state column is only ever written by the
// transition methods; everything else mutates the aggregate's rows and
// recomputes totals.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params) ([]models.Order, *pagination.Cursor, error)

	AddLineItem(ctx context.Context, orderID uuid.UUID, input AddLineItemInput) (*models.Order, error)
	UpdateLineItemQuantity(ctx context.Context, orderID, lineItemID uuid.UUID, quantity int) (*models.Order, error)
	RemoveLineItem(ctx context.Context, orderID, lineItemID uuid.UUID) (*models.Order, error)

	SetAddresses(ctx context.Context, orderID uuid.UUID, input SetAddressesInput) (*models.Order, error)
	SetDelivery(ctx context.Context, orderID uuid.UUID, input SetDeliveryInput) (*models.Order, error)
	AddAdjustment(ctx context.Context, orderID uuid.UUID, input AddAdjustmentInput) (*models.Order, error)

	RecordPayment(ctx context.Context, orderID uuid.UUID, input RecordPaymentInput) (*models.Payment, error)
	CompletePayment(ctx context.Context, orderID, paymentID uuid.UUID) (*models.Payment, error)

	Next(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Complete(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
}

// orderSteps is the forward path of the checkout progression. Canceled sits
// outside the list; it is reachable from every non-terminal state.
var orderSteps = []enums.OrderState{
	enums.OrderStateCart,
	enums.OrderStateAddress,
	enums.OrderStateDelivery,
	enums.OrderStatePayment,
	enums.OrderStateConfirm,
	enums.OrderStateComplete,
}

func nextState(current enums.OrderState) (enums.OrderState, bool) {
	for i, step := range orderSteps[:len(orderSteps)-1] {
		if step == current {
			return orderSteps[i+1], true
		}
	}
	return "", false
}
