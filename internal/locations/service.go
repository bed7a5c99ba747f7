package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/calderco/stockroom-backend/internal/stock"
	dbpkg "github.com/calderco/stockroom-backend/pkg/db"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	pkgerrors "github.com/calderco/stockroom-backend/pkg/errors"
	"github.com/calderco/stockroom-backend/pkg/outbox"
	"github.com/calderco/stockroom-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo     Repository
	stock    stockService
	stockRdr stockReader
	tx       txRunner
	outbox   outboxPublisher
	now      func() time.Time
}

// NewService builds a stock locations service with the required dependencies.
func NewService(repo Repository, stockSvc stockService, stockRdr stockReader, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("locations repository required")
	}
	if stockSvc == nil {
		return nil, fmt.Errorf("stock service required")
	}
	if stockRdr == nil {
		return nil, fmt.Errorf("stock reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:     repo,
		stock:    stockSvc,
		stockRdr: stockRdr,
		tx:       tx,
		outbox:   outboxSvc,
		now:      time.Now,
	}, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *service) Create(ctx context.Context, input CreateLocationInput) (*models.StockLocation, error) {
	code := normalizeCode(input.Code)
	name := strings.TrimSpace(input.Name)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location code required")
	}
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location name required")
	}

	location := &models.StockLocation{
		ID:      uuid.New(),
		Code:    code,
		Name:    name,
		Address: input.Address,
		Tags:    pq.StringArray(input.Tags),
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		active, err := repo.CountActive(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count locations")
		}
		location.IsDefault = active == 0 || input.MakeDefault
		if location.IsDefault && active > 0 {
			if err := repo.ClearDefault(ctx); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default location")
			}
		}

		if err := repo.Create(ctx, location); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_stock_locations_code") {
				return pkgerrors.New(pkgerrors.CodeConflict, "location code already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create location")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventLocationCreated,
			AggregateType: enums.AggregateStockLocation,
			AggregateID:   location.ID,
			Version:       1,
			Data: payloads.LocationCreatedEvent{
				StockLocationID: location.ID,
				Code:            location.Code,
				Name:            location.Name,
				IsDefault:       location.IsDefault,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue location created event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return location, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.StockLocation, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location id required")
	}
	return s.load(ctx, s.repo, id)
}

func (s *service) List(ctx context.Context, includeDeleted bool) ([]models.StockLocation, error) {
	list, err := s.repo.List(ctx, includeDeleted)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}
	return list, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateLocationInput) (*models.StockLocation, error) {
	location, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !location.Active() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "location is deactivated")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "location name required")
		}
		location.Name = name
	}
	if input.Address != nil {
		location.Address = input.Address
	}
	if input.Tags != nil {
		location.Tags = pq.StringArray(*input.Tags)
	}

	if err := s.repo.Update(ctx, location); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update location")
	}
	return location, nil
}

func (s *service) MakeDefault(ctx context.Context, id uuid.UUID) (*models.StockLocation, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location id required")
	}
	var location *models.StockLocation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if !loaded.Active() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "deactivated location cannot be default")
		}
		if loaded.IsDefault {
			location = loaded
			return nil
		}
		if err := repo.ClearDefault(ctx); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default location")
		}
		loaded.IsDefault = true
		if err := repo.Update(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default location")
		}
		location = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return location, nil
}

// Delete soft-deletes a location. Reserved stock blocks the delete outright;
// so does remaining on-hand stock, which has to transfer out first. Pending
// transfers are the orchestration layer's check, not ours.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "location id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		location, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if !location.Active() {
			return nil
		}

		reserved, err := s.stockRdr.CountReservedAtLocation(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count reservations")
		}
		if reserved > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "location has outstanding reservations").
				WithDetails(map[string]any{"items_with_reservations": reserved})
		}

		items, err := s.stockRdr.ListByLocation(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list location stock")
		}
		onHand := 0
		for _, item := range items {
			onHand += item.QtyOnHand
		}
		if onHand > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "location still holds stock").
				WithDetails(map[string]any{"qty_on_hand": onHand})
		}

		deletedAt := s.now().UTC()
		if err := repo.SetDeletedAt(ctx, id, &deletedAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate location")
		}
		if location.IsDefault {
			location.IsDefault = false
			location.DeletedAt = &deletedAt
			if err := repo.Update(ctx, location); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default flag")
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventLocationDeactivated,
			AggregateType: enums.AggregateStockLocation,
			AggregateID:   location.ID,
			Version:       1,
			Data: payloads.LocationDeactivatedEvent{
				StockLocationID: location.ID,
				Code:            location.Code,
				DeactivatedAt:   deletedAt,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue location deactivated event")
		}
		return nil
	})
}

func (s *service) Restore(ctx context.Context, id uuid.UUID) (*models.StockLocation, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location id required")
	}
	location, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if location.Active() {
		return location, nil
	}

	// The active-code unique index only admits the restore if no live
	// location claimed the code in the meantime.
	if existing, err := s.repo.FindByCode(ctx, location.Code); err == nil && existing.ID != location.ID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "location code already in use")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check location code")
	}

	if err := s.repo.SetDeletedAt(ctx, id, nil); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_stock_locations_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "location code already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore location")
	}
	location.DeletedAt = nil
	return location, nil
}

func (s *service) StockItemOrCreate(ctx context.Context, locationID, variantID uuid.UUID, backorderable bool) (*models.StockItem, error) {
	location, err := s.Get(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if !location.Active() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "location is deactivated")
	}
	return s.stock.ItemOrCreate(ctx, stock.ItemOrCreateInput{
		VariantID:       variantID,
		StockLocationID: locationID,
		Backorderable:   backorderable,
	})
}

func (s *service) Restock(ctx context.Context, input RestockInput) (*models.StockItem, error) {
	if err := s.validateCounterInput(ctx, input.StockLocationID, input.VariantID, input.Quantity); err != nil {
		return nil, err
	}
	item, err := s.stock.ItemOrCreate(ctx, stock.ItemOrCreateInput{
		VariantID:       input.VariantID,
		StockLocationID: input.StockLocationID,
		Backorderable:   input.Backorderable,
	})
	if err != nil {
		return nil, err
	}

	originator := input.Originator
	if originator == "" {
		originator = enums.MovementOriginatorReceipt
	}
	return s.stock.Adjust(ctx, stock.AdjustInput{
		StockItemID:   item.ID,
		QuantityDelta: input.Quantity,
		Originator:    originator,
		OriginatorID:  input.OriginatorID,
		Reason:        input.Reason,
	})
}

func (s *service) Unstock(ctx context.Context, input UnstockInput) (*models.StockItem, error) {
	if err := s.validateCounterInput(ctx, input.StockLocationID, input.VariantID, input.Quantity); err != nil {
		return nil, err
	}
	item, err := s.stock.GetByVariantAndLocation(ctx, input.VariantID, input.StockLocationID)
	if err != nil {
		return nil, err
	}

	originator := input.Originator
	if originator == "" {
		originator = enums.MovementOriginatorAdjustment
	}
	// The stock engine rejects an unstock that would strand reservations on
	// non-backorderable items inside its compare-and-swap cycle.
	return s.stock.Adjust(ctx, stock.AdjustInput{
		StockItemID:   item.ID,
		QuantityDelta: -input.Quantity,
		Originator:    originator,
		OriginatorID:  input.OriginatorID,
		Reason:        input.Reason,
	})
}

func (s *service) validateCounterInput(ctx context.Context, locationID, variantID uuid.UUID, quantity int) error {
	if variantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	location, err := s.Get(ctx, locationID)
	if err != nil {
		return err
	}
	if !location.Active() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "location is deactivated")
	}
	return nil
}

func (s *service) LinkStore(ctx context.Context, locationID, storeID uuid.UUID) (*models.StoreLink, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	location, err := s.Get(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if !location.Active() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "location is deactivated")
	}

	link := &models.StoreLink{
		ID:              uuid.New(),
		StockLocationID: locationID,
		StoreID:         storeID,
	}
	if err := s.repo.CreateStoreLink(ctx, link); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_store_links_location_store") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "store already linked")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link store")
	}
	return link, nil
}

func (s *service) UnlinkStore(ctx context.Context, locationID, storeID uuid.UUID) error {
	if locationID == uuid.Nil || storeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "location and store ids required")
	}
	if _, err := s.repo.FindStoreLink(ctx, locationID, storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "store link not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store link")
	}
	if err := s.repo.DeleteStoreLink(ctx, locationID, storeID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unlink store")
	}
	return nil
}

// ValidateInvariants walks the location's stock and links and reports the
// first breach found. Read-only; meant for the periodic audit sweep rather
// than inline mutation checks.
func (s *service) ValidateInvariants(ctx context.Context, locationID uuid.UUID) (*InvariantViolation, error) {
	location, err := s.Get(ctx, locationID)
	if err != nil {
		return nil, err
	}

	items, err := s.stockRdr.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list location stock")
	}
	for i := range items {
		item := items[i]
		if item.QtyOnHand < 0 {
			return &InvariantViolation{
				Kind:        ViolationNegativeOnHand,
				StockItemID: &item.ID,
				Message:     fmt.Sprintf("on-hand is %d", item.QtyOnHand),
			}, nil
		}
		if item.QtyReserved < 0 {
			return &InvariantViolation{
				Kind:        ViolationNegativeReserved,
				StockItemID: &item.ID,
				Message:     fmt.Sprintf("reserved is %d", item.QtyReserved),
			}, nil
		}
		if !item.Backorderable && item.QtyReserved > item.QtyOnHand {
			return &InvariantViolation{
				Kind:        ViolationStrandedReservation,
				StockItemID: &item.ID,
				Message:     fmt.Sprintf("reserved %d exceeds on-hand %d", item.QtyReserved, item.QtyOnHand),
			}, nil
		}
	}

	links, err := s.repo.ListStoreLinks(ctx, locationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store links")
	}
	for i := range links {
		link := links[i]
		if link.StockLocationID != location.ID {
			return &InvariantViolation{
				Kind:        ViolationLinkMismatch,
				StoreLinkID: &link.ID,
				Message:     fmt.Sprintf("link references location %s", link.StockLocationID),
			}, nil
		}
	}
	return nil, nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.StockLocation, error) {
	location, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}
	return location, nil
}
