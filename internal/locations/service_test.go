package locations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderco/stockroom-backend/internal/stock"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	pkgerrors "github.com/calderco/stockroom-backend/pkg/errors"
	"github.com/calderco/stockroom-backend/pkg/outbox"
)

type stubLocationsRepo struct {
	locations     map[uuid.UUID]*models.StockLocation
	links         []models.StoreLink
	clearDefaults int
	createErr     error
	linkErr       error
}

func newStubLocationsRepo(seed ...*models.StockLocation) *stubLocationsRepo {
	repo := &stubLocationsRepo{locations: map[uuid.UUID]*models.StockLocation{}}
	for _, location := range seed {
		repo.locations[location.ID] = location
	}
	return repo
}

func (s *stubLocationsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubLocationsRepo) Create(ctx context.Context, location *models.StockLocation) error {
	if s.createErr != nil {
		return s.createErr
	}
	copied := *location
	s.locations[location.ID] = &copied
	return nil
}

func (s *stubLocationsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.StockLocation, error) {
	location, ok := s.locations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *location
	return &copied, nil
}

func (s *stubLocationsRepo) FindByCode(ctx context.Context, code string) (*models.StockLocation, error) {
	for _, location := range s.locations {
		if location.Code == code && location.DeletedAt == nil {
			copied := *location
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLocationsRepo) List(ctx context.Context, includeDeleted bool) ([]models.StockLocation, error) {
	var out []models.StockLocation
	for _, location := range s.locations {
		if !includeDeleted && location.DeletedAt != nil {
			continue
		}
		out = append(out, *location)
	}
	return out, nil
}

func (s *stubLocationsRepo) CountActive(ctx context.Context) (int64, error) {
	var count int64
	for _, location := range s.locations {
		if location.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}

func (s *stubLocationsRepo) Update(ctx context.Context, location *models.StockLocation) error {
	copied := *location
	s.locations[location.ID] = &copied
	return nil
}

func (s *stubLocationsRepo) ClearDefault(ctx context.Context) error {
	s.clearDefaults++
	for _, location := range s.locations {
		if location.DeletedAt == nil {
			location.IsDefault = false
		}
	}
	return nil
}

func (s *stubLocationsRepo) SetDeletedAt(ctx context.Context, id uuid.UUID, deletedAt *time.Time) error {
	location, ok := s.locations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	location.DeletedAt = deletedAt
	return nil
}

func (s *stubLocationsRepo) CreateStoreLink(ctx context.Context, link *models.StoreLink) error {
	if s.linkErr != nil {
		return s.linkErr
	}
	s.links = append(s.links, *link)
	return nil
}

func (s *stubLocationsRepo) FindStoreLink(ctx context.Context, locationID, storeID uuid.UUID) (*models.StoreLink, error) {
	for i := range s.links {
		if s.links[i].StockLocationID == locationID && s.links[i].StoreID == storeID {
			copied := s.links[i]
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLocationsRepo) DeleteStoreLink(ctx context.Context, locationID, storeID uuid.UUID) error {
	for i := range s.links {
		if s.links[i].StockLocationID == locationID && s.links[i].StoreID == storeID {
			s.links = append(s.links[:i], s.links[i+1:]...)
			return nil
		}
	}
	return nil
}

// ListStoreLinks returns everything so tests can inject rows a corrupted
// index would surface for the wrong location.
func (s *stubLocationsRepo) ListStoreLinks(ctx context.Context, locationID uuid.UUID) ([]models.StoreLink, error) {
	return s.links, nil
}

type adjustCall struct {
	input stock.AdjustInput
}

type stubStockService struct {
	item    *models.StockItem
	adjusts []adjustCall
	creates []stock.ItemOrCreateInput
}

func (s *stubStockService) ItemOrCreate(ctx context.Context, input stock.ItemOrCreateInput) (*models.StockItem, error) {
	s.creates = append(s.creates, input)
	if s.item != nil {
		return s.item, nil
	}
	item := &models.StockItem{
		ID:              uuid.New(),
		VariantID:       input.VariantID,
		StockLocationID: input.StockLocationID,
		Backorderable:   input.Backorderable,
	}
	s.item = item
	return item, nil
}

func (s *stubStockService) GetByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*models.StockItem, error) {
	if s.item == nil || s.item.VariantID != variantID || s.item.StockLocationID != locationID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
	}
	return s.item, nil
}

func (s *stubStockService) Adjust(ctx context.Context, input stock.AdjustInput) (*models.StockItem, error) {
	s.adjusts = append(s.adjusts, adjustCall{input: input})
	s.item.QtyOnHand += input.QuantityDelta
	return s.item, nil
}

type stubStockReader struct {
	items    []models.StockItem
	reserved int64
}

func (s *stubStockReader) ListByLocation(ctx context.Context, locationID uuid.UUID) ([]models.StockItem, error) {
	return s.items, nil
}

func (s *stubStockReader) CountReservedAtLocation(ctx context.Context, locationID uuid.UUID) (int64, error) {
	return s.reserved, nil
}

type stubLocationsOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubLocationsOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubLocationsTxRunner struct{}

func (stubLocationsTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func activeLocation(code string, isDefault bool) *models.StockLocation {
	return &models.StockLocation{
		ID:        uuid.New(),
		Code:      code,
		Name:      code,
		IsDefault: isDefault,
	}
}

func newLocationsService(t *testing.T, repo *stubLocationsRepo, stockSvc *stubStockService, reader *stubStockReader, publisher *stubLocationsOutbox) Service {
	t.Helper()

	if stockSvc == nil {
		stockSvc = &stubStockService{}
	}
	if reader == nil {
		reader = &stubStockReader{}
	}
	if publisher == nil {
		publisher = &stubLocationsOutbox{}
	}
	svc, err := NewService(repo, stockSvc, reader, stubLocationsTxRunner{}, publisher)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func TestCreateFirstLocationBecomesDefault(t *testing.T) {
	repo := newStubLocationsRepo()
	publisher := &stubLocationsOutbox{}
	svc := newLocationsService(t, repo, nil, nil, publisher)

	location, err := svc.Create(context.Background(), CreateLocationInput{Code: "east", Name: "East DC"})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !location.IsDefault {
		t.Fatalf("first location must become default")
	}
	if location.Code != "EAST" {
		t.Fatalf("expected normalized code EAST got %s", location.Code)
	}
	if len(publisher.events) != 1 || publisher.events[0].EventType != enums.EventLocationCreated {
		t.Fatalf("expected location created event got %+v", publisher.events)
	}
}

func TestCreateSecondLocationKeepsExistingDefault(t *testing.T) {
	existing := activeLocation("EAST", true)
	repo := newStubLocationsRepo(existing)
	svc := newLocationsService(t, repo, nil, nil, nil)

	location, err := svc.Create(context.Background(), CreateLocationInput{Code: "WEST", Name: "West DC"})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if location.IsDefault {
		t.Fatalf("second location must not steal default")
	}
	if !repo.locations[existing.ID].IsDefault {
		t.Fatalf("existing default must survive")
	}
}

func TestCreateMakeDefaultClearsPrevious(t *testing.T) {
	existing := activeLocation("EAST", true)
	repo := newStubLocationsRepo(existing)
	svc := newLocationsService(t, repo, nil, nil, nil)

	location, err := svc.Create(context.Background(), CreateLocationInput{Code: "WEST", Name: "West DC", MakeDefault: true})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !location.IsDefault {
		t.Fatalf("new location must be default")
	}
	if repo.clearDefaults != 1 {
		t.Fatalf("expected previous default cleared")
	}
}

func TestCreateRejectsMissingFields(t *testing.T) {
	svc := newLocationsService(t, newStubLocationsRepo(), nil, nil, nil)

	if _, err := svc.Create(context.Background(), CreateLocationInput{Name: "East"}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateLocationInput{Code: "EAST"}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestCreateDuplicateCodeConflicts(t *testing.T) {
	repo := newStubLocationsRepo()
	repo.createErr = errors.New(`duplicate key value violates unique constraint "ux_stock_locations_code"`)
	svc := newLocationsService(t, repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateLocationInput{Code: "EAST", Name: "East"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict got %v", err)
	}
}

func TestMakeDefaultSwapsFlag(t *testing.T) {
	current := activeLocation("EAST", true)
	next := activeLocation("WEST", false)
	repo := newStubLocationsRepo(current, next)
	svc := newLocationsService(t, repo, nil, nil, nil)

	updated, err := svc.MakeDefault(context.Background(), next.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !updated.IsDefault {
		t.Fatalf("expected new default")
	}
	if repo.locations[current.ID].IsDefault {
		t.Fatalf("previous default must clear")
	}
}

func TestDeleteBlockedByReservations(t *testing.T) {
	location := activeLocation("EAST", false)
	repo := newStubLocationsRepo(location)
	reader := &stubStockReader{reserved: 3}
	svc := newLocationsService(t, repo, nil, reader, nil)

	err := svc.Delete(context.Background(), location.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict got %v", err)
	}
	if repo.locations[location.ID].DeletedAt != nil {
		t.Fatalf("location must stay active")
	}
}

func TestDeleteBlockedByOnHandStock(t *testing.T) {
	location := activeLocation("EAST", false)
	repo := newStubLocationsRepo(location)
	reader := &stubStockReader{items: []models.StockItem{{ID: uuid.New(), QtyOnHand: 5}}}
	svc := newLocationsService(t, repo, nil, reader, nil)

	err := svc.Delete(context.Background(), location.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict got %v", err)
	}
}

func TestDeleteEmitsEventAndIsIdempotent(t *testing.T) {
	location := activeLocation("EAST", true)
	repo := newStubLocationsRepo(location)
	publisher := &stubLocationsOutbox{}
	svc := newLocationsService(t, repo, nil, nil, publisher)

	if err := svc.Delete(context.Background(), location.ID); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.locations[location.ID].DeletedAt == nil {
		t.Fatalf("expected soft delete")
	}
	if repo.locations[location.ID].IsDefault {
		t.Fatalf("deleted location cannot stay default")
	}
	if len(publisher.events) != 1 || publisher.events[0].EventType != enums.EventLocationDeactivated {
		t.Fatalf("expected deactivated event got %+v", publisher.events)
	}

	if err := svc.Delete(context.Background(), location.ID); err != nil {
		t.Fatalf("expected idempotent delete got %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("second delete must not emit")
	}
}

func TestRestoreRejectsTakenCode(t *testing.T) {
	deletedAt := time.Now()
	buried := activeLocation("EAST", false)
	buried.DeletedAt = &deletedAt
	usurper := activeLocation("EAST", false)
	repo := newStubLocationsRepo(buried, usurper)
	svc := newLocationsService(t, repo, nil, nil, nil)

	_, err := svc.Restore(context.Background(), buried.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict got %v", err)
	}
}

func TestRestoreClearsDeletedAt(t *testing.T) {
	deletedAt := time.Now()
	buried := activeLocation("EAST", false)
	buried.DeletedAt = &deletedAt
	repo := newStubLocationsRepo(buried)
	svc := newLocationsService(t, repo, nil, nil, nil)

	restored, err := svc.Restore(context.Background(), buried.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if restored.DeletedAt != nil {
		t.Fatalf("expected active location")
	}
}

func TestRestockCreatesItemAndAdjusts(t *testing.T) {
	location := activeLocation("EAST", true)
	repo := newStubLocationsRepo(location)
	stockSvc := &stubStockService{}
	svc := newLocationsService(t, repo, stockSvc, nil, nil)

	variantID := uuid.New()
	_, err := svc.Restock(context.Background(), RestockInput{
		StockLocationID: location.ID,
		VariantID:       variantID,
		Quantity:        10,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(stockSvc.creates) != 1 || stockSvc.creates[0].VariantID != variantID {
		t.Fatalf("expected item resolution got %+v", stockSvc.creates)
	}
	if len(stockSvc.adjusts) != 1 {
		t.Fatalf("expected one adjust got %d", len(stockSvc.adjusts))
	}
	adjust := stockSvc.adjusts[0].input
	if adjust.QuantityDelta != 10 || adjust.Originator != enums.MovementOriginatorReceipt {
		t.Fatalf("expected +10 receipt got %+v", adjust)
	}
}

func TestUnstockDelegatesNegativeDelta(t *testing.T) {
	location := activeLocation("EAST", true)
	repo := newStubLocationsRepo(location)
	variantID := uuid.New()
	stockSvc := &stubStockService{item: &models.StockItem{
		ID:              uuid.New(),
		VariantID:       variantID,
		StockLocationID: location.ID,
		QtyOnHand:       20,
	}}
	svc := newLocationsService(t, repo, stockSvc, nil, nil)

	_, err := svc.Unstock(context.Background(), UnstockInput{
		StockLocationID: location.ID,
		VariantID:       variantID,
		Quantity:        5,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(stockSvc.adjusts) != 1 {
		t.Fatalf("expected one adjust got %d", len(stockSvc.adjusts))
	}
	adjust := stockSvc.adjusts[0].input
	if adjust.QuantityDelta != -5 || adjust.Originator != enums.MovementOriginatorAdjustment {
		t.Fatalf("expected -5 adjustment got %+v", adjust)
	}
}

func TestUnstockUnknownVariantNotFound(t *testing.T) {
	location := activeLocation("EAST", true)
	repo := newStubLocationsRepo(location)
	svc := newLocationsService(t, repo, &stubStockService{}, nil, nil)

	_, err := svc.Unstock(context.Background(), UnstockInput{
		StockLocationID: location.ID,
		VariantID:       uuid.New(),
		Quantity:        5,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestRestockRejectsDeactivatedLocation(t *testing.T) {
	deletedAt := time.Now()
	location := activeLocation("EAST", false)
	location.DeletedAt = &deletedAt
	repo := newStubLocationsRepo(location)
	svc := newLocationsService(t, repo, nil, nil, nil)

	_, err := svc.Restock(context.Background(), RestockInput{
		StockLocationID: location.ID,
		VariantID:       uuid.New(),
		Quantity:        1,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestLinkStoreDuplicateConflicts(t *testing.T) {
	location := activeLocation("EAST", true)
	repo := newStubLocationsRepo(location)
	repo.linkErr = errors.New(`duplicate key value violates unique constraint "ux_store_links_location_store"`)
	svc := newLocationsService(t, repo, nil, nil, nil)

	_, err := svc.LinkStore(context.Background(), location.ID, uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict got %v", err)
	}
}

func TestUnlinkMissingStoreNotFound(t *testing.T) {
	location := activeLocation("EAST", true)
	svc := newLocationsService(t, newStubLocationsRepo(location), nil, nil, nil)

	err := svc.UnlinkStore(context.Background(), location.ID, uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestValidateInvariantsReportsFirstViolation(t *testing.T) {
	location := activeLocation("EAST", true)
	repo := newStubLocationsRepo(location)
	reader := &stubStockReader{items: []models.StockItem{
		{ID: uuid.New(), QtyOnHand: 3, QtyReserved: 1},
		{ID: uuid.New(), QtyOnHand: 2, QtyReserved: 5, Backorderable: false},
	}}
	svc := newLocationsService(t, repo, nil, reader, nil)

	violation, err := svc.ValidateInvariants(context.Background(), location.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if violation == nil || violation.Kind != ViolationStrandedReservation {
		t.Fatalf("expected stranded reservation got %+v", violation)
	}
}

func TestValidateInvariantsDetectsLinkMismatch(t *testing.T) {
	location := activeLocation("EAST", true)
	repo := newStubLocationsRepo(location)
	repo.links = append(repo.links, models.StoreLink{
		ID:              uuid.New(),
		StockLocationID: uuid.New(),
		StoreID:         uuid.New(),
	})
	svc := newLocationsService(t, repo, nil, &stubStockReader{}, nil)

	violation, err := svc.ValidateInvariants(context.Background(), location.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if violation == nil || violation.Kind != ViolationLinkMismatch {
		t.Fatalf("expected link mismatch got %+v", violation)
	}
}

func TestValidateInvariantsHealthyLocation(t *testing.T) {
	location := activeLocation("EAST", true)
	reader := &stubStockReader{items: []models.StockItem{
		{ID: uuid.New(), QtyOnHand: 3, QtyReserved: 5, Backorderable: true},
	}}
	svc := newLocationsService(t, newStubLocationsRepo(location), nil, reader, nil)

	violation, err := svc.ValidateInvariants(context.Background(), location.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if violation != nil {
		t.Fatalf("backorderable overshoot is legal, got %+v", violation)
	}
}
