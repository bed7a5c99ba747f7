package enums

import "fmt"

// MovementOriginator maps to the movement_originator enum in Postgres and
// identifies which operation produced a stock movement.
type MovementOriginator string

const (
	MovementOriginatorAdjustment  MovementOriginator = "adjustment"
	MovementOriginatorReservation MovementOriginator = "reservation"
	MovementOriginatorRelease     MovementOriginator = "release"
	MovementOriginatorShipment    MovementOriginator = "shipment"
	MovementOriginatorTransfer    MovementOriginator = "transfer"
	MovementOriginatorReceipt     MovementOriginator = "receipt"
)

var validMovementOriginators = []MovementOriginator{
	MovementOriginatorAdjustment,
	MovementOriginatorReservation,
	MovementOriginatorRelease,
	MovementOriginatorShipment,
	MovementOriginatorTransfer,
	MovementOriginatorReceipt,
}

// String implements fmt.Stringer.
func (m MovementOriginator) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementOriginator.
func (m MovementOriginator) IsValid() bool {
	for _, candidate := range validMovementOriginators {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementOriginator converts raw input into a MovementOriginator.
func ParseMovementOriginator(value string) (MovementOriginator, error) {
	for _, candidate := range validMovementOriginators {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement originator %q", value)
}
