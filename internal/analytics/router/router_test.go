package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/internal/analytics/types"
	"github.com/calderco/stockroom-backend/pkg/enums"
	"github.com/calderco/stockroom-backend/pkg/logger"
	"github.com/calderco/stockroom-backend/pkg/outbox/payloads"
)

func TestRouterUnsupportedEvent(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	env := types.Envelope{
		EventType: enums.OutboxEventType("unsupported"),
		Payload:   []byte(`{"foo":"bar"}`),
	}
	err := router.Handle(context.Background(), env)
	if !errors.Is(err, ErrUnsupportedEventType) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestRouterEmptyPayload(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	env := types.Envelope{EventType: enums.EventStockAdjusted}
	if err := router.Handle(context.Background(), env); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestRouterRoutesToOverride(t *testing.T) {
	handler := &stubHandler{}
	router, _ := newTestRouter(t, map[enums.OutboxEventType]Handler{
		enums.EventStockReserved: handler,
	})
	payload := payloads.StockReservedEvent{
		StockItemID: uuid.New(),
		VariantID:   uuid.New(),
		Quantity:    3,
	}
	data, _ := json.Marshal(payload)
	env := types.Envelope{
		EventType: enums.EventStockReserved,
		Payload:   data,
	}
	if err := router.Handle(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handler.called {
		t.Fatal("handler not invoked")
	}
	decoded, ok := handler.payload.(*payloads.StockReservedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", handler.payload)
	}
	if decoded.Quantity != payload.Quantity {
		t.Fatalf("payload not decoded, got %+v", decoded)
	}
}

func TestRouterCoversEveryEventType(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	for _, eventType := range enums.OutboxEventTypes() {
		if _, ok := router.handlers[eventType]; !ok {
			t.Fatalf("no handler registered for %s", eventType)
		}
	}
}

func newTestRouter(t *testing.T, overrides map[enums.OutboxEventType]Handler) (*Router, *fakeWriter) {
	t.Helper()
	writer := &fakeWriter{}
	router, err := NewRouter(writer, logger.New(logger.Options{ServiceName: "router-test"}), overrides)
	if err != nil {
		t.Fatalf("construct router: %v", err)
	}
	return router, writer
}

type stubHandler struct {
	called  bool
	payload any
}

func (s *stubHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	s.called = true
	s.payload = payload
	return nil
}
