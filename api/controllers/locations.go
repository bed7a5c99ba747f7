package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/api/responses"
	"github.com/calderco/stockroom-backend/api/validators"
	"github.com/calderco/stockroom-backend/internal/locations"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/calderco/stockroom-backend/pkg/errors"
	"github.com/calderco/stockroom-backend/pkg/logger"
	"github.com/calderco/stockroom-backend/pkg/types"
)

type locationCreateRequest struct {
	Code        string         `json:"code" validate:"required,max=64"`
	Name        string         `json:"name" validate:"required,max=255"`
	Address     *types.Address `json:"address"`
	Tags        []string       `json:"tags" validate:"max=32,dive,max=64"`
	MakeDefault bool           `json:"make_default"`
}

type locationUpdateRequest struct {
	Name    *string        `json:"name" validate:"omitempty,max=255"`
	Address *types.Address `json:"address"`
	Tags    *[]string      `json:"tags" validate:"omitempty,max=32,dive,max=64"`
}

type locationRestockRequest struct {
	VariantID     string `json:"variant_id" validate:"required,uuid4"`
	Quantity      int    `json:"quantity" validate:"required,min=1"`
	Reason        string `json:"reason" validate:"max=255"`
	Backorderable bool   `json:"backorderable"`
}

type locationUnstockRequest struct {
	VariantID string `json:"variant_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Reason    string `json:"reason" validate:"max=255"`
}

type storeLinkRequest struct {
	StoreID string `json:"store_id" validate:"required,uuid4"`
}

type locationResponse struct {
	ID        uuid.UUID      `json:"id"`
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	IsDefault bool           `json:"is_default"`
	Active    bool           `json:"active"`
	Address   *types.Address `json:"address,omitempty"`
	Tags      []string       `json:"tags"`
	DeletedAt *time.Time     `json:"deleted_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func locationResponseFromModel(m *models.StockLocation) locationResponse {
	tags := []string(m.Tags)
	if tags == nil {
		tags = []string{}
	}
	return locationResponse{
		ID:        m.ID,
		Code:      m.Code,
		Name:      m.Name,
		IsDefault: m.IsDefault,
		Active:    m.Active(),
		Address:   m.Address,
		Tags:      tags,
		DeletedAt: m.DeletedAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type stockItemResponse struct {
	ID              uuid.UUID `json:"id"`
	VariantID       uuid.UUID `json:"variant_id"`
	StockLocationID uuid.UUID `json:"stock_location_id"`
	QtyOnHand       int       `json:"qty_on_hand"`
	QtyReserved     int       `json:"qty_reserved"`
	Available       int       `json:"available"`
	Backorderable   bool      `json:"backorderable"`
	LockVersion     int       `json:"lock_version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func stockItemResponseFromModel(m *models.StockItem) stockItemResponse {
	return stockItemResponse{
		ID:              m.ID,
		VariantID:       m.VariantID,
		StockLocationID: m.StockLocationID,
		QtyOnHand:       m.QtyOnHand,
		QtyReserved:     m.QtyReserved,
		Available:       m.Available(),
		Backorderable:   m.Backorderable,
		LockVersion:     m.LockVersion,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

type storeLinkResponse struct {
	ID              uuid.UUID `json:"id"`
	StockLocationID uuid.UUID `json:"stock_location_id"`
	StoreID         uuid.UUID `json:"store_id"`
	CreatedAt       time.Time `json:"created_at"`
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

// LocationCreate registers a stock location.
func LocationCreate(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload locationCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), locations.CreateLocationInput{
			Code:        validators.SanitizeString(payload.Code, 64),
			Name:        validators.SanitizeString(payload.Name, 255),
			Address:     payload.Address,
			Tags:        payload.Tags,
			MakeDefault: payload.MakeDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, locationResponseFromModel(created))
	}
}

func LocationList(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeDeleted := strings.EqualFold(r.URL.Query().Get("include_deleted"), "true")

		list, err := svc.List(r.Context(), includeDeleted)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]locationResponse, 0, len(list))
		for i := range list {
			out = append(out, locationResponseFromModel(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func LocationGet(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "locationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		location, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, locationResponseFromModel(location))
	}
}

func LocationUpdate(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "locationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload locationUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), id, locations.UpdateLocationInput{
			Name:    payload.Name,
			Address: payload.Address,
			Tags:    payload.Tags,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, locationResponseFromModel(updated))
	}
}

func LocationDelete(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "locationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func LocationRestore(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "locationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		restored, err := svc.Restore(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, locationResponseFromModel(restored))
	}
}

func LocationMakeDefault(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "locationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		location, err := svc.MakeDefault(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, locationResponseFromModel(location))
	}
}

// LocationRestock receives sellable stock for a variant at the location.
func LocationRestock(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "locationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload locationRestockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := uuid.Parse(payload.VariantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant_id"))
			return
		}

		item, err := svc.Restock(r.Context(), locations.RestockInput{
			StockLocationID: id,
			VariantID:       variantID,
			Quantity:        payload.Quantity,
			Reason:          validators.SanitizeString(payload.Reason, 255),
			Backorderable:   payload.Backorderable,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stockItemResponseFromModel(item))
	}
}

func LocationUnstock(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "locationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload locationUnstockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := uuid.Parse(payload.VariantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant_id"))
			return
		}

		item, err := svc.Unstock(r.Context(), locations.UnstockInput{
			StockLocationID: id,
			VariantID:       variantID,
			Quantity:        payload.Quantity,
			Reason:          validators.SanitizeString(payload.Reason, 255),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stockItemResponseFromModel(item))
	}
}

func LocationLinkStore(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "locationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload storeLinkRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := uuid.Parse(payload.StoreID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store_id"))
			return
		}

		link, err := svc.LinkStore(r.Context(), id, storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, storeLinkResponse{
			ID:              link.ID,
			StockLocationID: link.StockLocationID,
			StoreID:         link.StoreID,
			CreatedAt:       link.CreatedAt,
		})
	}
}

func LocationUnlinkStore(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "locationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, err := pathUUID(r, "storeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.UnlinkStore(r.Context(), id, storeID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "unlinked"})
	}
}

// LocationInvariants sweeps the location's stock items for consistency
// breaches and reports the first one found.
func LocationInvariants(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "locationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		violation, err := svc.ValidateInvariants(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"valid":     violation == nil,
			"violation": violation,
		})
	}
}
