package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/api/responses"
	"github.com/calderco/stockroom-backend/api/validators"
	"github.com/calderco/stockroom-backend/internal/orders"
	"github.com/calderco/stockroom-backend/pkg/enums"
	pkgerrors "github.com/calderco/stockroom-backend/pkg/errors"
	"github.com/calderco/stockroom-backend/pkg/logger"
	"github.com/calderco/stockroom-backend/pkg/pagination"
	"github.com/calderco/stockroom-backend/pkg/types"
)

type orderCreateRequest struct {
	Currency            string  `json:"currency" validate:"omitempty,len=3"`
	Email               *string `json:"email" validate:"omitempty,email"`
	SpecialInstructions *string `json:"special_instructions" validate:"omitempty,max=1000"`
}

type lineItemCreateRequest struct {
	VariantID      string `json:"variant_id" validate:"required,uuid4"`
	Name           string `json:"name" validate:"required,max=255"`
	SKU            string `json:"sku" validate:"max=64"`
	Quantity       int    `json:"quantity" validate:"required,min=1"`
	UnitPriceCents int    `json:"unit_price_cents" validate:"min=0"`
	Digital        bool   `json:"digital"`
}

type lineItemUpdateRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type orderAddressesRequest struct {
	Email       *string        `json:"email" validate:"omitempty,email"`
	ShipAddress *types.Address `json:"ship_address"`
	BillAddress *types.Address `json:"bill_address"`
}

type deliveryShipmentRequest struct {
	StockLocationID string   `json:"stock_location_id" validate:"required,uuid4"`
	CostCents       int      `json:"cost_cents" validate:"min=0"`
	LineItemIDs     []string `json:"line_item_ids" validate:"required,min=1,dive,uuid4"`
}

type orderDeliveryRequest struct {
	Shipments []deliveryShipmentRequest `json:"shipments" validate:"required,min=1,dive"`
}

func (req orderDeliveryRequest) toInput() (orders.SetDeliveryInput, error) {
	input := orders.SetDeliveryInput{}
	for _, shipment := range req.Shipments {
		locationID, err := uuid.Parse(shipment.StockLocationID)
		if err != nil {
			return orders.SetDeliveryInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stock_location_id")
		}
		ids := make([]uuid.UUID, 0, len(shipment.LineItemIDs))
		for _, raw := range shipment.LineItemIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return orders.SetDeliveryInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line_item_id")
			}
			ids = append(ids, id)
		}
		input.Shipments = append(input.Shipments, orders.ShipmentPlanInput{
			StockLocationID: locationID,
			CostCents:       shipment.CostCents,
			LineItemIDs:     ids,
		})
	}
	return input, nil
}

type orderAdjustmentRequest struct {
	Label       string `json:"label" validate:"required,max=255"`
	AmountCents int    `json:"amount_cents" validate:"required"`
}

type orderPaymentRequest struct {
	AmountCents int     `json:"amount_cents" validate:"required,min=1"`
	Reference   *string `json:"reference" validate:"omitempty,max=255"`
}

type orderCancelRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

// OrderCreate opens a new cart-state order.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload orderCreateRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		created, err := svc.Create(r.Context(), orders.CreateOrderInput{
			Currency:            enums.Currency(payload.Currency),
			Email:               payload.Email,
			SpecialInstructions: payload.SpecialInstructions,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, orders.ToDTO(created))
	}
}

func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, next, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]orders.OrderSummaryDTO, 0, len(list))
		for i := range list {
			out = append(out, orders.ToSummaryDTO(&list[i]))
		}
		payload := map[string]any{"orders": out}
		if next != nil {
			payload["next_cursor"] = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, payload)
	}
}

func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.ToDTO(order))
	}
}

func OrderAddLineItem(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload lineItemCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := uuid.Parse(payload.VariantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant_id"))
			return
		}

		order, err := svc.AddLineItem(r.Context(), id, orders.AddLineItemInput{
			VariantID:      variantID,
			Name:           validators.SanitizeString(payload.Name, 255),
			SKU:            validators.SanitizeString(payload.SKU, 64),
			Quantity:       payload.Quantity,
			UnitPriceCents: payload.UnitPriceCents,
			Digital:        payload.Digital,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.ToDTO(order))
	}
}

func OrderUpdateLineItem(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineItemID, err := pathUUID(r, "lineItemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload lineItemUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateLineItemQuantity(r.Context(), orderID, lineItemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.ToDTO(order))
	}
}

func OrderRemoveLineItem(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineItemID, err := pathUUID(r, "lineItemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.RemoveLineItem(r.Context(), orderID, lineItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.ToDTO(order))
	}
}

func OrderSetAddresses(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload orderAddressesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.SetAddresses(r.Context(), id, orders.SetAddressesInput{
			Email:       payload.Email,
			ShipAddress: payload.ShipAddress,
			BillAddress: payload.BillAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.ToDTO(order))
	}
}

// OrderSetDelivery applies the caller's placement decision and creates the
// order's shipments.
func OrderSetDelivery(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload orderDeliveryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.SetDelivery(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.ToDTO(order))
	}
}

func OrderAddAdjustment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload orderAdjustmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.AddAdjustment(r.Context(), id, orders.AddAdjustmentInput{
			Label:       validators.SanitizeString(payload.Label, 255),
			AmountCents: payload.AmountCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.ToDTO(order))
	}
}

func OrderRecordPayment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload orderPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.RecordPayment(r.Context(), id, orders.RecordPaymentInput{
			AmountCents: payload.AmountCents,
			Reference:   payload.Reference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, orders.ToPaymentDTO(payment))
	}
}

func OrderCompletePayment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentID, err := pathUUID(r, "paymentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.CompletePayment(r.Context(), orderID, paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.ToPaymentDTO(payment))
	}
}

// OrderNext advances the order exactly one checkout step.
func OrderNext(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Next(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.ToDTO(order))
	}
}

func OrderComplete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Complete(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.ToDTO(order))
	}
}

func OrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload orderCancelRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		order, err := svc.Cancel(r.Context(), id, validators.SanitizeString(payload.Reason, 255))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.ToDTO(order))
	}
}
