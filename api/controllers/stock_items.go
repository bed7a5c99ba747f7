package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/api/responses"
	"github.com/calderco/stockroom-backend/api/validators"
	"github.com/calderco/stockroom-backend/internal/stock"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	pkgerrors "github.com/calderco/stockroom-backend/pkg/errors"
	"github.com/calderco/stockroom-backend/pkg/logger"
	"github.com/calderco/stockroom-backend/pkg/pagination"
)

type stockChangeRequest struct {
	Quantity     int     `json:"quantity" validate:"required,min=1"`
	OriginatorID *string `json:"originator_id" validate:"omitempty,uuid4"`
	Reason       string  `json:"reason" validate:"max=255"`
}

func (req stockChangeRequest) originator() (*uuid.UUID, error) {
	if req.OriginatorID == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*req.OriginatorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid originator_id")
	}
	return &id, nil
}

type movementResponse struct {
	ID            uuid.UUID                `json:"id"`
	StockItemID   uuid.UUID                `json:"stock_item_id"`
	QuantityDelta int                      `json:"quantity_delta"`
	Originator    enums.MovementOriginator `json:"originator"`
	OriginatorID  *uuid.UUID               `json:"originator_id,omitempty"`
	Reason        *string                  `json:"reason,omitempty"`
	Details       json.RawMessage          `json:"details,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}

func movementResponseFromModel(m *models.StockMovement) movementResponse {
	return movementResponse{
		ID:            m.ID,
		StockItemID:   m.StockItemID,
		QuantityDelta: m.QuantityDelta,
		Originator:    m.Originator,
		OriginatorID:  m.OriginatorID,
		Reason:        m.Reason,
		Details:       m.Details,
		CreatedAt:     m.CreatedAt,
	}
}

// StockItemMovements lists the append-only movement ledger, newest first.
func StockItemMovements(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "stockItemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movements, next, err := svc.ListMovements(r.Context(), id, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]movementResponse, 0, len(movements))
		for i := range movements {
			out = append(out, movementResponseFromModel(&movements[i]))
		}
		payload := map[string]any{"movements": out}
		if next != nil {
			payload["next_cursor"] = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, payload)
	}
}

// StockItemReserve earmarks sellable stock. This is the entry point the
// orchestration layer calls when it promises stock outside an order flow.
func StockItemReserve(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "stockItemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload stockChangeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		originatorID, err := payload.originator()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Reserve(r.Context(), stock.ReserveInput{
			StockItemID:  id,
			Quantity:     payload.Quantity,
			OriginatorID: originatorID,
			Reason:       validators.SanitizeString(payload.Reason, 255),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stockItemResponseFromModel(item))
	}
}

// StockItemRelease returns reserved stock to the sellable pool.
func StockItemRelease(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "stockItemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload stockChangeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		originatorID, err := payload.originator()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Release(r.Context(), stock.ReleaseInput{
			StockItemID:  id,
			Quantity:     payload.Quantity,
			OriginatorID: originatorID,
			Reason:       validators.SanitizeString(payload.Reason, 255),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stockItemResponseFromModel(item))
	}
}
