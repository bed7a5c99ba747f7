package transfers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
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

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo      Repository
	stock     stockEngine
	stockRepo stockReader
	locations locationReader
	sequences sequences.Service
	tx        txRunner
	outbox    outboxPublisher
}

// NewService builds a stock transfers service with the required dependencies.
func NewService(repo Repository, stockSvc stockEngine, stockRepo stockReader, locations locationReader, seq sequences.Service, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transfers repository required")
	}
	if stockSvc == nil {
		return nil, fmt.Errorf("stock service required")
	}
	if stockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if locations == nil {
		return nil, fmt.Errorf("locations reader required")
	}
	if seq == nil {
		return nil, fmt.Errorf("sequence service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:      repo,
		stock:     stockSvc,
		stockRepo: stockRepo,
		locations: locations,
		sequences: seq,
		tx:        tx,
		outbox:    outboxSvc,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateTransferInput) (*models.StockTransfer, error) {
	if input.DestinationLocationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination location required")
	}
	if input.SourceLocationID != nil && *input.SourceLocationID == input.DestinationLocationID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "source and destination must differ")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line required")
	}

	var badLines []map[string]any
	seen := map[uuid.UUID]bool{}
	for i, line := range input.Lines {
		switch {
		case line.VariantID == uuid.Nil:
			badLines = append(badLines, map[string]any{"index": i, "reason": "variant required"})
		case line.Quantity <= 0:
			badLines = append(badLines, map[string]any{"index": i, "variant_id": line.VariantID, "reason": "quantity must be positive"})
		case seen[line.VariantID]:
			badLines = append(badLines, map[string]any{"index": i, "variant_id": line.VariantID, "reason": "variant repeated"})
		default:
			seen[line.VariantID] = true
		}
	}
	if len(badLines) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid transfer lines").
			WithDetails(map[string]any{"lines": badLines})
	}

	if err := s.checkLocation(ctx, input.DestinationLocationID, "destination"); err != nil {
		return nil, err
	}
	if input.SourceLocationID != nil {
		if err := s.checkLocation(ctx, *input.SourceLocationID, "source"); err != nil {
			return nil, err
		}
	}

	transfer := &models.StockTransfer{
		ID:                    uuid.New(),
		SourceLocationID:      input.SourceLocationID,
		DestinationLocationID: input.DestinationLocationID,
		Reference:             input.Reference,
	}
	for _, line := range input.Lines {
		transfer.Lines = append(transfer.Lines, models.StockTransferLine{
			ID:              uuid.New(),
			StockTransferID: transfer.ID,
			VariantID:       line.VariantID,
			Quantity:        line.Quantity,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.sequences.NextNumber(ctx, tx, sequences.KindTransfer)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign transfer number")
		}
		transfer.Number = number

		if err := s.repo.WithTx(tx).Create(ctx, transfer); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transfer")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventTransferCreated,
			AggregateType: enums.AggregateStockTransfer,
			AggregateID:   transfer.ID,
			Version:       1,
			Data: payloads.TransferCreatedEvent{
				TransferID:            transfer.ID,
				Number:                transfer.Number,
				SourceLocationID:      transfer.SourceLocationID,
				DestinationLocationID: transfer.DestinationLocationID,
				LineCount:             len(transfer.Lines),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue transfer created event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

func (s *service) checkLocation(ctx context.Context, id uuid.UUID, role string) error {
	location, err := s.locations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s location not found", role))
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+role+" location")
	}
	if !location.Active() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%s location is deactivated", role))
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.StockTransfer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer id required")
	}
	return s.load(ctx, s.repo, id)
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]models.StockTransfer, *pagination.Cursor, error) {
	page, cursor, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transfers")
	}
	return page, cursor, nil
}

// Executed reports whether the transfer already produced stock movements.
func (s *service) Executed(ctx context.Context, id uuid.UUID) (bool, error) {
	transfer, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	count, err := s.stockRepo.WithTx(nil).CountMovementsForOriginator(ctx, transfer.ID, transferOriginators)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count transfer movements")
	}
	return count > 0, nil
}

// Transfer executes a location-to-location move.
func (s *service) Transfer(ctx context.Context, id uuid.UUID) (*models.StockTransfer, error) {
	transfer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if transfer.Receipt() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer has no source; receive it instead")
	}
	return s.run(ctx, transfer)
}

// Receive executes a supplier receipt into the destination.
func (s *service) Receive(ctx context.Context, id uuid.UUID) (*models.StockTransfer, error) {
	transfer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transfer.Receipt() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer has a source; transfer it instead")
	}
	return s.run(ctx, transfer)
}

// run drives both phases inside one transaction. Validation failures leave
// no side effects; an execute failure rolls back every applied leg and is
// reported as a partial failure the caller may retry.
func (s *service) run(ctx context.Context, transfer *models.StockTransfer) (*models.StockTransfer, error) {
	var failedLeg *payloads.TransferLineFailure
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		count, err := s.stockRepo.WithTx(tx).CountMovementsForOriginator(ctx, transfer.ID, transferOriginators)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count transfer movements")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transfer already executed")
		}

		plan, err := s.plan(ctx, tx, transfer)
		if err != nil {
			return err
		}

		failure, err := s.execute(ctx, tx, transfer, plan)
		if err != nil {
			failedLeg = failure
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventTransferCompleted,
			AggregateType: enums.AggregateStockTransfer,
			AggregateID:   transfer.ID,
			Version:       1,
			Data: payloads.TransferCompletedEvent{
				TransferID:            transfer.ID,
				Number:                transfer.Number,
				SourceLocationID:      transfer.SourceLocationID,
				DestinationLocationID: transfer.DestinationLocationID,
				TotalQuantity:         plan.total,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue transfer completed event")
		}
		return nil
	})
	if err != nil {
		if failedLeg != nil {
			// The rollback took the in-tx outbox row with it, so the
			// failure event goes out in its own transaction.
			if emitErr := s.emitPartialFailure(ctx, transfer, *failedLeg); emitErr != nil {
				err = multierr.Append(err, emitErr)
			}
		}
		return nil, err
	}
	return transfer, nil
}

// plan is the validate phase: resolve every line, accumulate every failure,
// touch nothing.
func (s *service) plan(ctx context.Context, tx *gorm.DB, transfer *models.StockTransfer) (*executionPlan, error) {
	repo := s.stockRepo.WithTx(tx)
	plan := &executionPlan{}
	var failures []payloads.TransferLineFailure
	var errs error

	for _, line := range transfer.Lines {
		if transfer.Receipt() {
			plan.legs = append(plan.legs, legPlan{line: line})
			plan.total += line.Quantity
			continue
		}

		item, err := repo.FindByVariantAndLocation(ctx, line.VariantID, *transfer.SourceLocationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				failures = append(failures, payloads.TransferLineFailure{
					VariantID: line.VariantID,
					Requested: line.Quantity,
					Reason:    "variant not stocked at source",
				})
				errs = multierr.Append(errs, fmt.Errorf("variant %s: not stocked at source", line.VariantID))
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve source stock")
		}

		available := item.Available()
		if line.Quantity > available {
			failures = append(failures, payloads.TransferLineFailure{
				VariantID: line.VariantID,
				Requested: line.Quantity,
				Available: available,
				Reason:    "insufficient available stock",
			})
			errs = multierr.Append(errs, fmt.Errorf("variant %s: requested %d, available %d", line.VariantID, line.Quantity, available))
			continue
		}

		plan.legs = append(plan.legs, legPlan{line: line, sourceItem: item})
		plan.total += line.Quantity
	}

	if len(failures) > 0 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, errs, "transfer validation failed").
			WithDetails(map[string]any{"failures": failures})
	}
	return plan, nil
}

// execute applies unstock+restock for every planned leg. The first failing
// leg aborts; validation already passed, so failures here mean a concurrent
// writer raced past the plan.
func (s *service) execute(ctx context.Context, tx *gorm.DB, transfer *models.StockTransfer, plan *executionPlan) (*payloads.TransferLineFailure, error) {
	inbound := enums.MovementOriginatorTransfer
	if transfer.Receipt() {
		inbound = enums.MovementOriginatorReceipt
	}
	transferID := transfer.ID

	for _, leg := range plan.legs {
		if leg.sourceItem != nil {
			_, err := s.stock.AdjustTx(ctx, tx, stock.AdjustInput{
				StockItemID:   leg.sourceItem.ID,
				QuantityDelta: -leg.line.Quantity,
				Originator:    enums.MovementOriginatorTransfer,
				OriginatorID:  &transferID,
				Reason:        "transfer out " + transfer.Number,
			})
			if err != nil {
				return s.legFailure(leg, err)
			}
		}

		destination, err := s.stock.ItemOrCreateTx(ctx, tx, stock.ItemOrCreateInput{
			VariantID:       leg.line.VariantID,
			StockLocationID: transfer.DestinationLocationID,
		})
		if err != nil {
			return s.legFailure(leg, err)
		}
		_, err = s.stock.AdjustTx(ctx, tx, stock.AdjustInput{
			StockItemID:   destination.ID,
			QuantityDelta: leg.line.Quantity,
			Originator:    inbound,
			OriginatorID:  &transferID,
			Reason:        "transfer in " + transfer.Number,
		})
		if err != nil {
			return s.legFailure(leg, err)
		}
	}
	return nil, nil
}

func (s *service) legFailure(leg legPlan, cause error) (*payloads.TransferLineFailure, error) {
	failure := payloads.TransferLineFailure{
		VariantID: leg.line.VariantID,
		Requested: leg.line.Quantity,
		Reason:    cause.Error(),
	}
	if leg.sourceItem != nil {
		failure.Available = leg.sourceItem.Available()
	}
	err := pkgerrors.Wrap(pkgerrors.CodePartialFailure, cause, "transfer leg failed").
		WithDetails(map[string]any{"failures": []payloads.TransferLineFailure{failure}})
	return &failure, err
}

func (s *service) emitPartialFailure(ctx context.Context, transfer *models.StockTransfer, failure payloads.TransferLineFailure) error {
	reference := ""
	if transfer.Reference != nil {
		reference = *transfer.Reference
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventTransferPartiallyFailed,
		AggregateType: enums.AggregateStockTransfer,
		AggregateID:   transfer.ID,
		Version:       1,
		Data: payloads.TransferPartiallyFailedEvent{
			TransferID:            transfer.ID,
			Number:                transfer.Number,
			SourceLocationID:      transfer.SourceLocationID,
			DestinationLocationID: transfer.DestinationLocationID,
			Reference:             reference,
			Failures:              []payloads.TransferLineFailure{failure},
		},
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, event)
	})
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.StockTransfer, error) {
	transfer, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transfer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transfer")
	}
	return transfer, nil
}
