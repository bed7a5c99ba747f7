package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/api/responses"
	"github.com/calderco/stockroom-backend/api/validators"
	"github.com/calderco/stockroom-backend/internal/shipments"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	"github.com/calderco/stockroom-backend/pkg/logger"
)

type shipmentShipRequest struct {
	Tracking *string `json:"tracking" validate:"omitempty,max=128"`
}

type inventoryUnitResponse struct {
	ID         uuid.UUID                `json:"id"`
	LineItemID uuid.UUID                `json:"line_item_id"`
	VariantID  uuid.UUID                `json:"variant_id"`
	State      enums.InventoryUnitState `json:"state"`
	Quantity   int                      `json:"quantity"`
}

type shipmentResponse struct {
	ID              uuid.UUID               `json:"id"`
	OrderID         uuid.UUID               `json:"order_id"`
	Number          string                  `json:"number"`
	StockLocationID uuid.UUID               `json:"stock_location_id"`
	State           enums.ShipmentState     `json:"state"`
	Tracking        *string                 `json:"tracking,omitempty"`
	CostCents       int                     `json:"cost_cents"`
	ShippedAt       *time.Time              `json:"shipped_at,omitempty"`
	Units           []inventoryUnitResponse `json:"units"`
	CreatedAt       time.Time               `json:"created_at"`
}

func shipmentResponseFromModel(m *models.Shipment) shipmentResponse {
	units := make([]inventoryUnitResponse, 0, len(m.Units))
	for _, unit := range m.Units {
		units = append(units, inventoryUnitResponse{
			ID:         unit.ID,
			LineItemID: unit.LineItemID,
			VariantID:  unit.VariantID,
			State:      unit.State,
			Quantity:   unit.Quantity,
		})
	}
	return shipmentResponse{
		ID:              m.ID,
		OrderID:         m.OrderID,
		Number:          m.Number,
		StockLocationID: m.StockLocationID,
		State:           m.State,
		Tracking:        m.Tracking,
		CostCents:       m.CostCents,
		ShippedAt:       m.ShippedAt,
		Units:           units,
		CreatedAt:       m.CreatedAt,
	}
}

func ShipmentGet(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "shipmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipment, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipmentResponseFromModel(shipment))
	}
}

func OrderShipments(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]shipmentResponse, 0, len(list))
		for i := range list {
			out = append(out, shipmentResponseFromModel(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// ShipmentReady stages a fully picked shipment for dispatch.
func ShipmentReady(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "shipmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipment, err := svc.Ready(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipmentResponseFromModel(shipment))
	}
}

// ShipmentShip dispatches a staged shipment and burns down its reserved
// stock in the same transaction.
func ShipmentShip(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "shipmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload shipmentShipRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		shipment, err := svc.Ship(r.Context(), id, payload.Tracking)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipmentResponseFromModel(shipment))
	}
}
