package transfers

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderco/stockroom-backend/internal/sequences"
	"github.com/calderco/stockroom-backend/internal/stock"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	pkgerrors "github.com/calderco/stockroom-backend/pkg/errors"
	"github.com/calderco/stockroom-backend/pkg/outbox"
	"github.com/calderco/stockroom-backend/pkg/outbox/payloads"
	"github.com/calderco/stockroom-backend/pkg/pagination"
)

type stubTransfersRepo struct {
	transfers map[uuid.UUID]*models.StockTransfer
}

func newStubTransfersRepo(seed ...*models.StockTransfer) *stubTransfersRepo {
	repo := &stubTransfersRepo{transfers: map[uuid.UUID]*models.StockTransfer{}}
	for _, transfer := range seed {
		repo.transfers[transfer.ID] = transfer
	}
	return repo
}

func (s *stubTransfersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubTransfersRepo) Create(ctx context.Context, transfer *models.StockTransfer) error {
	copied := *transfer
	s.transfers[transfer.ID] = &copied
	return nil
}

func (s *stubTransfersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.StockTransfer, error) {
	transfer, ok := s.transfers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *transfer
	return &copied, nil
}

func (s *stubTransfersRepo) List(ctx context.Context, params pagination.Params) ([]models.StockTransfer, *pagination.Cursor, error) {
	panic("not implemented")
}

// stubStockReads satisfies the stock repository surface the planner and the
// executed-once guard read through.
type stubStockReads struct {
	items         map[string]*models.StockItem
	movementCount int64
}

func stockKey(variantID, locationID uuid.UUID) string {
	return variantID.String() + "/" + locationID.String()
}

func (s *stubStockReads) WithTx(tx *gorm.DB) stock.Repository { return s }

func (s *stubStockReads) Create(ctx context.Context, item *models.StockItem) error {
	panic("not implemented")
}

func (s *stubStockReads) FindByID(ctx context.Context, id uuid.UUID) (*models.StockItem, error) {
	panic("not implemented")
}

func (s *stubStockReads) FindByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*models.StockItem, error) {
	item, ok := s.items[stockKey(variantID, locationID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (s *stubStockReads) ListByLocation(ctx context.Context, locationID uuid.UUID) ([]models.StockItem, error) {
	panic("not implemented")
}

func (s *stubStockReads) ListAll(ctx context.Context) ([]models.StockItem, error) {
	panic("not implemented")
}

func (s *stubStockReads) UpdateQuantities(ctx context.Context, item *models.StockItem, expectedVersion int) (bool, error) {
	panic("not implemented")
}

func (s *stubStockReads) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	panic("not implemented")
}

func (s *stubStockReads) ListMovements(ctx context.Context, stockItemID uuid.UUID, params pagination.Params) ([]models.StockMovement, *pagination.Cursor, error) {
	panic("not implemented")
}

func (s *stubStockReads) SumMovements(ctx context.Context, stockItemID uuid.UUID, originators []enums.MovementOriginator) (int64, error) {
	panic("not implemented")
}

func (s *stubStockReads) CountMovementsForOriginator(ctx context.Context, originatorID uuid.UUID, originators []enums.MovementOriginator) (int64, error) {
	return s.movementCount, nil
}

func (s *stubStockReads) CountReservedAtLocation(ctx context.Context, locationID uuid.UUID) (int64, error) {
	panic("not implemented")
}

type engineAdjust struct {
	input stock.AdjustInput
}

type stubStockEngine struct {
	adjusts   []engineAdjust
	creates   []stock.ItemOrCreateInput
	failOn    int
	failErr   error
	itemsByID map[uuid.UUID]*models.StockItem
}

func (s *stubStockEngine) ItemOrCreateTx(ctx context.Context, tx *gorm.DB, input stock.ItemOrCreateInput) (*models.StockItem, error) {
	s.creates = append(s.creates, input)
	item := &models.StockItem{
		ID:              uuid.New(),
		VariantID:       input.VariantID,
		StockLocationID: input.StockLocationID,
	}
	if s.itemsByID == nil {
		s.itemsByID = map[uuid.UUID]*models.StockItem{}
	}
	s.itemsByID[item.ID] = item
	return item, nil
}

func (s *stubStockEngine) AdjustTx(ctx context.Context, tx *gorm.DB, input stock.AdjustInput) (*models.StockItem, error) {
	s.adjusts = append(s.adjusts, engineAdjust{input: input})
	if s.failOn > 0 && len(s.adjusts) == s.failOn {
		if s.failErr != nil {
			return nil, s.failErr
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "stock item version conflict")
	}
	return &models.StockItem{ID: input.StockItemID}, nil
}

type stubLocationReader struct {
	locations map[uuid.UUID]*models.StockLocation
}

func newStubLocationReader(ids ...uuid.UUID) *stubLocationReader {
	reader := &stubLocationReader{locations: map[uuid.UUID]*models.StockLocation{}}
	for _, id := range ids {
		reader.locations[id] = &models.StockLocation{ID: id, Code: "LOC", Name: "Location"}
	}
	return reader
}

func (s *stubLocationReader) FindByID(ctx context.Context, id uuid.UUID) (*models.StockLocation, error) {
	location, ok := s.locations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return location, nil
}

type stubSequences struct {
	next int64
}

func (s *stubSequences) NextNumber(ctx context.Context, tx *gorm.DB, kind sequences.Kind) (string, error) {
	s.next++
	return fmt.Sprintf("T%09d", s.next), nil
}

type stubTransfersOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubTransfersOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubTransfersTxRunner struct{}

func (stubTransfersTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type transfersFixture struct {
	repo      *stubTransfersRepo
	engine    *stubStockEngine
	reads     *stubStockReads
	locations *stubLocationReader
	outbox    *stubTransfersOutbox
	svc       Service
}

func newTransfersFixture(t *testing.T, locationIDs ...uuid.UUID) *transfersFixture {
	t.Helper()

	fixture := &transfersFixture{
		repo:      newStubTransfersRepo(),
		engine:    &stubStockEngine{},
		reads:     &stubStockReads{items: map[string]*models.StockItem{}},
		locations: newStubLocationReader(locationIDs...),
		outbox:    &stubTransfersOutbox{},
	}
	svc, err := NewService(fixture.repo, fixture.engine, fixture.reads, fixture.locations, &stubSequences{}, stubTransfersTxRunner{}, fixture.outbox)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	fixture.svc = svc
	return fixture
}

func (f *transfersFixture) seedStock(variantID, locationID uuid.UUID, onHand, reserved int) *models.StockItem {
	item := &models.StockItem{
		ID:              uuid.New(),
		VariantID:       variantID,
		StockLocationID: locationID,
		QtyOnHand:       onHand,
		QtyReserved:     reserved,
	}
	f.reads.items[stockKey(variantID, locationID)] = item
	return item
}

func TestCreateAssignsNumberAndEmits(t *testing.T) {
	source := uuid.New()
	destination := uuid.New()
	fixture := newTransfersFixture(t, source, destination)

	transfer, err := fixture.svc.Create(context.Background(), CreateTransferInput{
		SourceLocationID:      &source,
		DestinationLocationID: destination,
		Lines:                 []TransferLineInput{{VariantID: uuid.New(), Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if transfer.Number != "T000000001" {
		t.Fatalf("expected sequential number got %s", transfer.Number)
	}
	if len(fixture.outbox.events) != 1 || fixture.outbox.events[0].EventType != enums.EventTransferCreated {
		t.Fatalf("expected transfer created event got %+v", fixture.outbox.events)
	}
}

func TestCreateRejectsSameEndpoints(t *testing.T) {
	location := uuid.New()
	fixture := newTransfersFixture(t, location)

	_, err := fixture.svc.Create(context.Background(), CreateTransferInput{
		SourceLocationID:      &location,
		DestinationLocationID: location,
		Lines:                 []TransferLineInput{{VariantID: uuid.New(), Quantity: 1}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict got %v", err)
	}
}

func TestCreateCollectsAllBadLines(t *testing.T) {
	destination := uuid.New()
	fixture := newTransfersFixture(t, destination)
	repeated := uuid.New()

	_, err := fixture.svc.Create(context.Background(), CreateTransferInput{
		DestinationLocationID: destination,
		Lines: []TransferLineInput{
			{VariantID: repeated, Quantity: 3},
			{VariantID: uuid.Nil, Quantity: 1},
			{VariantID: uuid.New(), Quantity: 0},
			{VariantID: repeated, Quantity: 2},
		},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map got %T", pkgerrors.As(err).Details())
	}
	lines, ok := details["lines"].([]map[string]any)
	if !ok || len(lines) != 3 {
		t.Fatalf("expected three offending lines got %+v", details["lines"])
	}
}

func TestCreateUnknownDestination(t *testing.T) {
	fixture := newTransfersFixture(t)

	_, err := fixture.svc.Create(context.Background(), CreateTransferInput{
		DestinationLocationID: uuid.New(),
		Lines:                 []TransferLineInput{{VariantID: uuid.New(), Quantity: 1}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func seedTransfer(fixture *transfersFixture, source *uuid.UUID, destination uuid.UUID, lines ...models.StockTransferLine) *models.StockTransfer {
	transfer := &models.StockTransfer{
		ID:                    uuid.New(),
		Number:                "T000000042",
		SourceLocationID:      source,
		DestinationLocationID: destination,
		Lines:                 lines,
	}
	fixture.repo.transfers[transfer.ID] = transfer
	return transfer
}

func TestTransferAccumulatesAllValidationFailures(t *testing.T) {
	source := uuid.New()
	destination := uuid.New()
	fixture := newTransfersFixture(t, source, destination)

	stocked := uuid.New()
	fixture.seedStock(stocked, source, 2, 0)
	missing := uuid.New()

	transfer := seedTransfer(fixture, &source, destination,
		models.StockTransferLine{ID: uuid.New(), VariantID: stocked, Quantity: 5},
		models.StockTransferLine{ID: uuid.New(), VariantID: missing, Quantity: 1},
	)

	_, err := fixture.svc.Transfer(context.Background(), transfer.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock got %v", err)
	}
	details := pkgerrors.As(err).Details().(map[string]any)
	failures, ok := details["failures"].([]payloads.TransferLineFailure)
	if !ok || len(failures) != 2 {
		t.Fatalf("expected both failing lines reported got %+v", details["failures"])
	}
	if failures[0].Available != 2 || failures[0].Requested != 5 {
		t.Fatalf("expected availability recorded got %+v", failures[0])
	}
	if failures[1].Reason != "variant not stocked at source" {
		t.Fatalf("expected missing-variant reason got %+v", failures[1])
	}
	if len(fixture.engine.adjusts) != 0 {
		t.Fatalf("validation failure must not touch stock, got %d adjusts", len(fixture.engine.adjusts))
	}
	if len(fixture.outbox.events) != 0 {
		t.Fatalf("validation failure must not emit events")
	}
}

func TestTransferHappyPathMovesEveryLine(t *testing.T) {
	source := uuid.New()
	destination := uuid.New()
	fixture := newTransfersFixture(t, source, destination)

	variantA := uuid.New()
	variantB := uuid.New()
	fixture.seedStock(variantA, source, 10, 2)
	fixture.seedStock(variantB, source, 4, 0)

	transfer := seedTransfer(fixture, &source, destination,
		models.StockTransferLine{ID: uuid.New(), VariantID: variantA, Quantity: 5},
		models.StockTransferLine{ID: uuid.New(), VariantID: variantB, Quantity: 4},
	)

	executed, err := fixture.svc.Transfer(context.Background(), transfer.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if executed.ID != transfer.ID {
		t.Fatalf("expected same transfer back")
	}
	if len(fixture.engine.adjusts) != 4 {
		t.Fatalf("expected four legs got %d", len(fixture.engine.adjusts))
	}
	out := fixture.engine.adjusts[0].input
	if out.QuantityDelta != -5 || out.Originator != enums.MovementOriginatorTransfer {
		t.Fatalf("expected -5 transfer leg got %+v", out)
	}
	if out.OriginatorID == nil || *out.OriginatorID != transfer.ID {
		t.Fatalf("movement must reference the transfer")
	}
	in := fixture.engine.adjusts[1].input
	if in.QuantityDelta != 5 || in.Originator != enums.MovementOriginatorTransfer {
		t.Fatalf("expected +5 transfer leg got %+v", in)
	}
	if len(fixture.outbox.events) != 1 || fixture.outbox.events[0].EventType != enums.EventTransferCompleted {
		t.Fatalf("expected transfer completed event got %+v", fixture.outbox.events)
	}
}

func TestReceiveStampsReceiptLegs(t *testing.T) {
	destination := uuid.New()
	fixture := newTransfersFixture(t, destination)

	transfer := seedTransfer(fixture, nil, destination,
		models.StockTransferLine{ID: uuid.New(), VariantID: uuid.New(), Quantity: 7},
	)

	_, err := fixture.svc.Receive(context.Background(), transfer.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(fixture.engine.adjusts) != 1 {
		t.Fatalf("receipt has no source leg, got %d adjusts", len(fixture.engine.adjusts))
	}
	leg := fixture.engine.adjusts[0].input
	if leg.QuantityDelta != 7 || leg.Originator != enums.MovementOriginatorReceipt {
		t.Fatalf("expected +7 receipt leg got %+v", leg)
	}
}

func TestTransferRejectsReceipts(t *testing.T) {
	destination := uuid.New()
	fixture := newTransfersFixture(t, destination)
	transfer := seedTransfer(fixture, nil, destination,
		models.StockTransferLine{ID: uuid.New(), VariantID: uuid.New(), Quantity: 1},
	)

	if _, err := fixture.svc.Transfer(context.Background(), transfer.ID); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error got %v", err)
	}

	source := uuid.New()
	fixture.locations.locations[source] = &models.StockLocation{ID: source, Code: "SRC", Name: "Source"}
	moved := seedTransfer(fixture, &source, destination,
		models.StockTransferLine{ID: uuid.New(), VariantID: uuid.New(), Quantity: 1},
	)
	if _, err := fixture.svc.Receive(context.Background(), moved.ID); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestTransferExecutesOnlyOnce(t *testing.T) {
	source := uuid.New()
	destination := uuid.New()
	fixture := newTransfersFixture(t, source, destination)
	fixture.reads.movementCount = 2

	transfer := seedTransfer(fixture, &source, destination,
		models.StockTransferLine{ID: uuid.New(), VariantID: uuid.New(), Quantity: 1},
	)

	_, err := fixture.svc.Transfer(context.Background(), transfer.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestLegFailureReportsPartialFailure(t *testing.T) {
	source := uuid.New()
	destination := uuid.New()
	fixture := newTransfersFixture(t, source, destination)

	variantA := uuid.New()
	variantB := uuid.New()
	fixture.seedStock(variantA, source, 10, 0)
	fixture.seedStock(variantB, source, 10, 0)
	fixture.engine.failOn = 3

	transfer := seedTransfer(fixture, &source, destination,
		models.StockTransferLine{ID: uuid.New(), VariantID: variantA, Quantity: 2},
		models.StockTransferLine{ID: uuid.New(), VariantID: variantB, Quantity: 3},
	)

	_, err := fixture.svc.Transfer(context.Background(), transfer.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodePartialFailure) {
		t.Fatalf("expected partial failure got %v", err)
	}
	if len(fixture.outbox.events) != 1 || fixture.outbox.events[0].EventType != enums.EventTransferPartiallyFailed {
		t.Fatalf("expected partial failure event got %+v", fixture.outbox.events)
	}
}

func TestExecutedReflectsMovements(t *testing.T) {
	source := uuid.New()
	destination := uuid.New()
	fixture := newTransfersFixture(t, source, destination)
	transfer := seedTransfer(fixture, &source, destination,
		models.StockTransferLine{ID: uuid.New(), VariantID: uuid.New(), Quantity: 1},
	)

	done, err := fixture.svc.Executed(context.Background(), transfer.ID)
	if err != nil || done {
		t.Fatalf("expected not executed got %v/%v", done, err)
	}

	fixture.reads.movementCount = 2
	done, err = fixture.svc.Executed(context.Background(), transfer.ID)
	if err != nil || !done {
		t.Fatalf("expected executed got %v/%v", done, err)
	}
}

func TestGetUnknownTransfer(t *testing.T) {
	fixture := newTransfersFixture(t)

	_, err := fixture.svc.Get(context.Background(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}
