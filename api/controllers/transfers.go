package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/api/responses"
	"github.com/calderco/stockroom-backend/api/validators"
	"github.com/calderco/stockroom-backend/internal/transfers"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/calderco/stockroom-backend/pkg/errors"
	"github.com/calderco/stockroom-backend/pkg/logger"
	"github.com/calderco/stockroom-backend/pkg/pagination"
)

type transferLineRequest struct {
	VariantID string `json:"variant_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type transferCreateRequest struct {
	SourceLocationID      *string               `json:"source_location_id" validate:"omitempty,uuid4"`
	DestinationLocationID string                `json:"destination_location_id" validate:"required,uuid4"`
	Reference             *string               `json:"reference" validate:"omitempty,max=255"`
	Lines                 []transferLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (req transferCreateRequest) toInput() (transfers.CreateTransferInput, error) {
	destination, err := uuid.Parse(req.DestinationLocationID)
	if err != nil {
		return transfers.CreateTransferInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid destination_location_id")
	}

	var source *uuid.UUID
	if req.SourceLocationID != nil {
		parsed, err := uuid.Parse(*req.SourceLocationID)
		if err != nil {
			return transfers.CreateTransferInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid source_location_id")
		}
		source = &parsed
	}

	lines := make([]transfers.TransferLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		variantID, err := uuid.Parse(line.VariantID)
		if err != nil {
			return transfers.CreateTransferInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line variant_id")
		}
		lines = append(lines, transfers.TransferLineInput{VariantID: variantID, Quantity: line.Quantity})
	}

	return transfers.CreateTransferInput{
		SourceLocationID:      source,
		DestinationLocationID: destination,
		Reference:             req.Reference,
		Lines:                 lines,
	}, nil
}

type transferLineResponse struct {
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int       `json:"quantity"`
}

type transferResponse struct {
	ID                    uuid.UUID              `json:"id"`
	Number                string                 `json:"number"`
	SourceLocationID      *uuid.UUID             `json:"source_location_id,omitempty"`
	DestinationLocationID uuid.UUID              `json:"destination_location_id"`
	Reference             *string                `json:"reference,omitempty"`
	Receipt               bool                   `json:"receipt"`
	Lines                 []transferLineResponse `json:"lines"`
	CreatedAt             time.Time              `json:"created_at"`
}

func transferResponseFromModel(m *models.StockTransfer) transferResponse {
	lines := make([]transferLineResponse, 0, len(m.Lines))
	for _, line := range m.Lines {
		lines = append(lines, transferLineResponse{VariantID: line.VariantID, Quantity: line.Quantity})
	}
	return transferResponse{
		ID:                    m.ID,
		Number:                m.Number,
		SourceLocationID:      m.SourceLocationID,
		DestinationLocationID: m.DestinationLocationID,
		Reference:             m.Reference,
		Receipt:               m.Receipt(),
		Lines:                 lines,
		CreatedAt:             m.CreatedAt,
	}
}

// TransferCreate records a transfer document. Stock does not move until the
// transfer endpoint executes it.
func TransferCreate(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload transferCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, transferResponseFromModel(created))
	}
}

func TransferList(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
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

		out := make([]transferResponse, 0, len(list))
		for i := range list {
			out = append(out, transferResponseFromModel(&list[i]))
		}
		payload := map[string]any{"transfers": out}
		if next != nil {
			payload["next_cursor"] = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, payload)
	}
}

func TransferGet(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "transferID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		transfer, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transferResponseFromModel(transfer))
	}
}

// TransferExecute moves every line between owned locations, all or nothing.
func TransferExecute(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "transferID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		transfer, err := svc.Transfer(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transferResponseFromModel(transfer))
	}
}

// TransferReceive books a supplier receipt into the destination location.
func TransferReceive(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "transferID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		transfer, err := svc.Receive(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transferResponseFromModel(transfer))
	}
}
