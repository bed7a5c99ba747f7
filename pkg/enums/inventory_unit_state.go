package enums

import "fmt"

// InventoryUnitState tracks the lifecycle of an inventory unit block.
type InventoryUnitState string

const (
	InventoryUnitStateOnHand      InventoryUnitState = "on_hand"
	InventoryUnitStateBackordered InventoryUnitState = "backordered"
	InventoryUnitStateShipped     InventoryUnitState = "shipped"
	InventoryUnitStateReturned    InventoryUnitState = "returned"
	InventoryUnitStateCanceled    InventoryUnitState = "canceled"
)

var validInventoryUnitStates = []InventoryUnitState{
	InventoryUnitStateOnHand,
	InventoryUnitStateBackordered,
	InventoryUnitStateShipped,
	InventoryUnitStateReturned,
	InventoryUnitStateCanceled,
}

// String implements fmt.Stringer.
func (s InventoryUnitState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known InventoryUnitState.
func (s InventoryUnitState) IsValid() bool {
	for _, candidate := range validInventoryUnitStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInventoryUnitState converts raw input into an InventoryUnitState.
func ParseInventoryUnitState(value string) (InventoryUnitState, error) {
	for _, candidate := range validInventoryUnitStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory unit state %q", value)
}
