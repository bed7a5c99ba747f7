package locations

import (
	"github.com/google/uuid"

	"github.com/calderco/stockroom-backend/pkg/enums"
	"github.com/calderco/stockroom-backend/pkg/types"
)

// CreateLocationInput captures the fields for a new stock location.
type CreateLocationInput struct {
	Code        string
	Name        string
	Address     *types.Address
	Tags        []string
	MakeDefault bool
}

// UpdateLocationInput patches an existing location. Nil fields stay as-is.
type UpdateLocationInput struct {
	Name    *string
	Address *types.Address
	Tags    *[]string
}

// RestockInput adds sellable stock for a variant at a location. Originator
// defaults to a receipt when unset.
type RestockInput struct {
	StockLocationID uuid.UUID
	VariantID       uuid.UUID
	Quantity        int
	Originator      enums.MovementOriginator
	OriginatorID    *uuid.UUID
	Reason          string
	Backorderable   bool
}

// UnstockInput removes sellable stock. Originator defaults to a manual
// adjustment when unset.
type UnstockInput struct {
	StockLocationID uuid.UUID
	VariantID       uuid.UUID
	Quantity        int
	Originator      enums.MovementOriginator
	OriginatorID    *uuid.UUID
	Reason          string
}

// InvariantViolation reports the first consistency breach found during a
// location sweep.
type InvariantViolation struct {
	Kind        string     `json:"kind"`
	StockItemID *uuid.UUID `json:"stock_item_id,omitempty"`
	StoreLinkID *uuid.UUID `json:"store_link_id,omitempty"`
	Message     string     `json:"message"`
}

// Violation kinds surfaced by ValidateInvariants.
const (
	ViolationNegativeOnHand      = "negative_on_hand"
	ViolationNegativeReserved    = "negative_reserved"
	ViolationStrandedReservation = "reserved_exceeds_on_hand"
	ViolationLinkMismatch        = "store_link_mismatch"
)
