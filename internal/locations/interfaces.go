package locations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderco/stockroom-backend/internal/stock"
	"github.com/calderco/stockroom-backend/pkg/db/models"
)

// Repository defines persistence operations for stock locations and their
// store links.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, location *models.StockLocation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.StockLocation, error)
	FindByCode(ctx context.Context, code string) (*models.StockLocation, error)
	List(ctx context.Context, includeDeleted bool) ([]models.StockLocation, error)
	CountActive(ctx context.Context) (int64, error)
	Update(ctx context.Context, location *models.StockLocation) error
	ClearDefault(ctx context.Context) error
	SetDeletedAt(ctx context.Context, id uuid.UUID, deletedAt *time.Time) error
	CreateStoreLink(ctx context.Context, link *models.StoreLink) error
	FindStoreLink(ctx context.Context, locationID, storeID uuid.UUID) (*models.StoreLink, error)
	DeleteStoreLink(ctx context.Context, locationID, storeID uuid.UUID) error
	ListStoreLinks(ctx context.Context, locationID uuid.UUID) ([]models.StoreLink, error)
}

// stockService is the slice of the stock engine locations delegate to for
// counter changes.
type stockService interface {
	ItemOrCreate(ctx context.Context, input stock.ItemOrCreateInput) (*models.StockItem, error)
	GetByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*models.StockItem, error)
	Adjust(ctx context.Context, input stock.AdjustInput) (*models.StockItem, error)
}

// stockReader provides the read side used by delete guards and invariant
// sweeps.
type stockReader interface {
	ListByLocation(ctx context.Context, locationID uuid.UUID) ([]models.StockItem, error)
	CountReservedAtLocation(ctx context.Context, locationID uuid.UUID) (int64, error)
}

// Service exposes stock location operations. Locations soft-delete so the
// movement history under them survives; counter changes always flow through
// the stock engine rather than touching rows here.
type Service interface {
	Create(ctx context.Context, input CreateLocationInput) (*models.StockLocation, error)
	Get(ctx context.Context, id uuid.UUID) (*models.StockLocation, error)
	List(ctx context.Context, includeDeleted bool) ([]models.StockLocation, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateLocationInput) (*models.StockLocation, error)
	MakeDefault(ctx context.Context, id uuid.UUID) (*models.StockLocation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) (*models.StockLocation, error)

	StockItemOrCreate(ctx context.Context, locationID, variantID uuid.UUID, backorderable bool) (*models.StockItem, error)
	Restock(ctx context.Context, input RestockInput) (*models.StockItem, error)
	Unstock(ctx context.Context, input UnstockInput) (*models.StockItem, error)

	LinkStore(ctx context.Context, locationID, storeID uuid.UUID) (*models.StoreLink, error)
	UnlinkStore(ctx context.Context, locationID, storeID uuid.UUID) error

	ValidateInvariants(ctx context.Context, locationID uuid.UUID) (*InvariantViolation, error)
}
