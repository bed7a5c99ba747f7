package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/internal/transfers"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/calderco/stockroom-backend/pkg/errors"
	"github.com/calderco/stockroom-backend/pkg/pagination"
)

type testTransferService struct {
	createFn  func(ctx context.Context, input transfers.CreateTransferInput) (*models.StockTransfer, error)
	executeFn func(ctx context.Context, id uuid.UUID) (*models.StockTransfer, error)
	receiveFn func(ctx context.Context, id uuid.UUID) (*models.StockTransfer, error)
}

func (s *testTransferService) Create(ctx context.Context, input transfers.CreateTransferInput) (*models.StockTransfer, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return &models.StockTransfer{ID: uuid.New(), Number: "T000000001", DestinationLocationID: input.DestinationLocationID}, nil
}

func (s *testTransferService) Get(ctx context.Context, id uuid.UUID) (*models.StockTransfer, error) {
	return &models.StockTransfer{ID: id, Number: "T000000001", DestinationLocationID: uuid.New()}, nil
}

func (s *testTransferService) List(ctx context.Context, params pagination.Params) ([]models.StockTransfer, *pagination.Cursor, error) {
	return []models.StockTransfer{}, nil, nil
}

func (s *testTransferService) Transfer(ctx context.Context, id uuid.UUID) (*models.StockTransfer, error) {
	if s.executeFn != nil {
		return s.executeFn(ctx, id)
	}
	return &models.StockTransfer{ID: id, Number: "T000000001", DestinationLocationID: uuid.New()}, nil
}

func (s *testTransferService) Receive(ctx context.Context, id uuid.UUID) (*models.StockTransfer, error) {
	if s.receiveFn != nil {
		return s.receiveFn(ctx, id)
	}
	return &models.StockTransfer{ID: id, Number: "T000000001", DestinationLocationID: uuid.New()}, nil
}

func (s *testTransferService) Executed(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, nil
}

func TestTransferCreateParsesLines(t *testing.T) {
	sourceID := uuid.New()
	destinationID := uuid.New()
	variantA := uuid.New()
	variantB := uuid.New()
	var got transfers.CreateTransferInput
	svc := &testTransferService{
		createFn: func(ctx context.Context, input transfers.CreateTransferInput) (*models.StockTransfer, error) {
			got = input
			return &models.StockTransfer{ID: uuid.New(), Number: "T000000009", DestinationLocationID: input.DestinationLocationID}, nil
		},
	}

	body := `{
		"source_location_id": "` + sourceID.String() + `",
		"destination_location_id": "` + destinationID.String() + `",
		"reference": "PO-1187",
		"lines": [
			{"variant_id": "` + variantA.String() + `", "quantity": 4},
			{"variant_id": "` + variantB.String() + `", "quantity": 1}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/stock-transfers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	TransferCreate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got.SourceLocationID == nil || *got.SourceLocationID != sourceID {
		t.Fatalf("expected source to be carried, got %+v", got.SourceLocationID)
	}
	if got.DestinationLocationID != destinationID {
		t.Fatalf("unexpected destination %s", got.DestinationLocationID)
	}
	if len(got.Lines) != 2 || got.Lines[0].VariantID != variantA || got.Lines[1].Quantity != 1 {
		t.Fatalf("unexpected lines %+v", got.Lines)
	}
	if got.Reference == nil || *got.Reference != "PO-1187" {
		t.Fatalf("expected reference to be carried, got %+v", got.Reference)
	}
}

func TestTransferCreateRejectsEmptyLines(t *testing.T) {
	body := `{"destination_location_id":"` + uuid.NewString() + `","lines":[]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/stock-transfers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	TransferCreate(&testTransferService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestTransferExecuteFlagsRetryableConflict(t *testing.T) {
	transferID := uuid.New()
	svc := &testTransferService{
		executeFn: func(ctx context.Context, id uuid.UUID) (*models.StockTransfer, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "stock item version conflict")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/stock-transfers/"+transferID.String()+"/transfer", nil)
	req = addRouteParam(req, "transferID", transferID.String())
	resp := httptest.NewRecorder()
	TransferExecute(svc, testLogger())(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After on a retryable conflict")
	}
}

func TestTransferReceiveRendersReceipt(t *testing.T) {
	transferID := uuid.New()
	destinationID := uuid.New()
	svc := &testTransferService{
		receiveFn: func(ctx context.Context, id uuid.UUID) (*models.StockTransfer, error) {
			return &models.StockTransfer{
				ID:                    id,
				Number:                "T000000003",
				DestinationLocationID: destinationID,
				Lines: []models.StockTransferLine{
					{ID: uuid.New(), StockTransferID: id, VariantID: uuid.New(), Quantity: 6},
				},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/stock-transfers/"+transferID.String()+"/receive", nil)
	req = addRouteParam(req, "transferID", transferID.String())
	resp := httptest.NewRecorder()
	TransferReceive(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data transferResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !envelope.Data.Receipt {
		t.Fatal("expected a sourceless transfer to render as a receipt")
	}
	if len(envelope.Data.Lines) != 1 || envelope.Data.Lines[0].Quantity != 6 {
		t.Fatalf("unexpected lines %+v", envelope.Data.Lines)
	}
}
