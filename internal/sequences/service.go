package sequences

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Kind names one independently numbered sequence.
type Kind string

const (
	KindOrder    Kind = "order"
	KindShipment Kind = "shipment"
	KindTransfer Kind = "transfer"
)

var prefixes = map[Kind]string{
	KindOrder:    "O",
	KindShipment: "S",
	KindTransfer: "T",
}

// Service formats human-readable document numbers backed by durable counters.
type Service interface {
	NextNumber(ctx context.Context, tx *gorm.DB, kind Kind) (string, error)
}

type service struct {
	repo Repository
}

// NewService wires a sequence service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sequence repository required")
	}
	return &service{repo: repo}, nil
}

// NextNumber returns the next number for the kind, e.g. O000000042. Callers
// creating documents inside a transaction pass it so the counter advance
// commits or rolls back with the document.
func (s *service) NextNumber(ctx context.Context, tx *gorm.DB, kind Kind) (string, error) {
	prefix, ok := prefixes[kind]
	if !ok {
		return "", fmt.Errorf("unknown sequence kind %q", kind)
	}

	value, err := s.repo.WithTx(tx).Next(ctx, string(kind))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%09d", prefix, value), nil
}
