package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	pkgerrors "github.com/calderco/stockroom-backend/pkg/errors"
)

type testShipmentService struct {
	getFn   func(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	listFn  func(ctx context.Context, orderID uuid.UUID) ([]models.Shipment, error)
	readyFn func(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	shipFn  func(ctx context.Context, id uuid.UUID, tracking *string) (*models.Shipment, error)
}

func (s *testShipmentService) Get(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return &models.Shipment{ID: id, Number: "S000000001", State: enums.ShipmentStatePending}, nil
}

func (s *testShipmentService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Shipment, error) {
	if s.listFn != nil {
		return s.listFn(ctx, orderID)
	}
	return nil, nil
}

func (s *testShipmentService) Ready(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	if s.readyFn != nil {
		return s.readyFn(ctx, id)
	}
	return &models.Shipment{ID: id, Number: "S000000001", State: enums.ShipmentStateReady}, nil
}

func (s *testShipmentService) Ship(ctx context.Context, id uuid.UUID, tracking *string) (*models.Shipment, error) {
	if s.shipFn != nil {
		return s.shipFn(ctx, id, tracking)
	}
	return &models.Shipment{ID: id, Number: "S000000001", State: enums.ShipmentStateShipped, Tracking: tracking}, nil
}

func TestShipmentShipPassesTracking(t *testing.T) {
	shipmentID := uuid.New()
	var gotTracking *string
	svc := &testShipmentService{
		shipFn: func(ctx context.Context, id uuid.UUID, tracking *string) (*models.Shipment, error) {
			gotTracking = tracking
			return &models.Shipment{ID: id, Number: "S000000042", State: enums.ShipmentStateShipped, Tracking: tracking}, nil
		},
	}

	body := `{"tracking":"1Z999AA10123456784"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/shipments/"+shipmentID.String()+"/ship", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = addRouteParam(req, "shipmentID", shipmentID.String())
	resp := httptest.NewRecorder()
	ShipmentShip(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotTracking == nil || *gotTracking != "1Z999AA10123456784" {
		t.Fatalf("expected tracking to be carried, got %+v", gotTracking)
	}
	var envelope struct {
		Data shipmentResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.State != enums.ShipmentStateShipped {
		t.Fatalf("unexpected state %s", envelope.Data.State)
	}
	if envelope.Data.Tracking == nil || *envelope.Data.Tracking != "1Z999AA10123456784" {
		t.Fatalf("unexpected tracking %+v", envelope.Data.Tracking)
	}
}

func TestShipmentShipAcceptsEmptyBody(t *testing.T) {
	shipmentID := uuid.New()
	var gotTracking *string
	called := false
	svc := &testShipmentService{
		shipFn: func(ctx context.Context, id uuid.UUID, tracking *string) (*models.Shipment, error) {
			called = true
			gotTracking = tracking
			return &models.Shipment{ID: id, Number: "S000000042", State: enums.ShipmentStateShipped}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/shipments/"+shipmentID.String()+"/ship", nil)
	req = addRouteParam(req, "shipmentID", shipmentID.String())
	resp := httptest.NewRecorder()
	ShipmentShip(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if !called {
		t.Fatal("expected service called")
	}
	if gotTracking != nil {
		t.Fatalf("expected nil tracking for empty body, got %q", *gotTracking)
	}
}

func TestShipmentReadyMapsStateConflict(t *testing.T) {
	shipmentID := uuid.New()
	svc := &testShipmentService{
		readyFn: func(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipment has backordered units")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/shipments/"+shipmentID.String()+"/ready", nil)
	req = addRouteParam(req, "shipmentID", shipmentID.String())
	resp := httptest.NewRecorder()
	ShipmentReady(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}

func TestOrderShipmentsListsByOrder(t *testing.T) {
	orderID := uuid.New()
	svc := &testShipmentService{
		listFn: func(ctx context.Context, id uuid.UUID) ([]models.Shipment, error) {
			if id != orderID {
				t.Fatalf("unexpected order %s", id)
			}
			return []models.Shipment{
				{ID: uuid.New(), OrderID: id, Number: "S000000001", State: enums.ShipmentStateReady,
					Units: []models.InventoryUnit{{ID: uuid.New(), OrderID: id, State: enums.InventoryUnitStateOnHand, Quantity: 2}}},
				{ID: uuid.New(), OrderID: id, Number: "S000000002", State: enums.ShipmentStatePending},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/orders/"+orderID.String()+"/shipments", nil)
	req = addRouteParam(req, "orderID", orderID.String())
	resp := httptest.NewRecorder()
	OrderShipments(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data []shipmentResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 shipments got %d", len(envelope.Data))
	}
	if len(envelope.Data[0].Units) != 1 || envelope.Data[0].Units[0].Quantity != 2 {
		t.Fatalf("unexpected units %+v", envelope.Data[0].Units)
	}
}
