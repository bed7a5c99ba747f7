package transfers

import (
	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/pkg/db/models"
)

// TransferLineInput names one variant/quantity pair to move.
type TransferLineInput struct {
	VariantID uuid.UUID
	Quantity  int
}

// CreateTransferInput captures a transfer request. A nil source makes it a
// supplier receipt into the destination.
type CreateTransferInput struct {
	SourceLocationID      *uuid.UUID
	DestinationLocationID uuid.UUID
	Reference             *string
	Lines                 []TransferLineInput
}

// legPlan pairs a requested line with its resolved source item. Source is
// nil for receipt legs, which have nothing to unstock.
type legPlan struct {
	line       models.StockTransferLine
	sourceItem *models.StockItem
}

// executionPlan is the outcome of a fully clean validate phase.
type executionPlan struct {
	legs  []legPlan
	total int
}
