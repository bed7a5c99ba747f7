package transfers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderco/stockroom-backend/internal/stock"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	"github.com/calderco/stockroom-backend/pkg/pagination"
)

// Repository defines persistence operations for stock transfers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, transfer *models.StockTransfer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.StockTransfer, error)
	List(ctx context.Context, params pagination.Params) ([]models.StockTransfer, *pagination.Cursor, error)
}

// stockEngine is the slice of the stock service transfer legs run through.
type stockEngine interface {
	ItemOrCreateTx(ctx context.Context, tx *gorm.DB, input stock.ItemOrCreateInput) (*models.StockItem, error)
	AdjustTx(ctx context.Context, tx *gorm.DB, input stock.AdjustInput) (*models.StockItem, error)
}

// stockReader resolves source items during the validate phase and counts
// prior movements for the executed-once guard.
type stockReader interface {
	WithTx(tx *gorm.DB) stock.Repository
}

// locationReader verifies both endpoints exist and still accept stock.
type locationReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.StockLocation, error)
}

/// Service owns the transfer document lifecycle: create the request, then
// execute it exactly once through the two-phase validate-then-execute
// protocol. Execution runs inside one transaction so a leg failure after
// validation rolls back the already-applied legs.
type Service interface {
	Create(ctx context.Context, input CreateTransferInput) (*models.StockTransfer, error)
	Get(ctx context.Context, id uuid.UUID) (*models.StockTransfer, error)
	List(ctx context.Context, params pagination.Params) ([]models.StockTransfer, *pagination.Cursor, error)
	Transfer(ctx context.Context, id uuid.UUID) (*models.StockTransfer, error)
	Receive(ctx context.Context, id uuid.UUID) (*models.StockTransfer, error)
	Executed(ctx context.Context, id uuid.UUID) (bool, error)
}

// Originators a transfer execution may stamp on movements.
var transferOriginators = []enums.MovementOriginator{
	enums.MovementOriginatorTransfer,
	enums.MovementOriginatorReceipt,
}
