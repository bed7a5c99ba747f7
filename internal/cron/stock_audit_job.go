package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/calderco/stockroom-backend/internal/locations"
	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/logger"
	"github.com/calderco/stockroom-backend/pkg/metrics"
)

// StockAuditJobParams configure the invariant sweep.
type StockAuditJobParams struct {
	Logger    *logger.Logger
	Locations locationAuditor
	Units     backorderCounter
	Metrics   *metrics.EngineMetrics
}

type locationAuditor interface {
	List(ctx context.Context, includeDeleted bool) ([]models.StockLocation, error)
	ValidateInvariants(ctx context.Context, locationID uuid.UUID) (*locations.InvariantViolation, error)
}

type backorderCounter interface {
	CountBackordered(ctx context.Context) (int64, error)
}

// NewStockAuditJob builds the job that checks counter invariants at every
// active location and refreshes the open backorder gauge.
func NewStockAuditJob(params StockAuditJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Locations == nil {
		return nil, fmt.Errorf("location service required")
	}
	if params.Units == nil {
		return nil, fmt.Errorf("units service required")
	}
	return &stockAuditJob{
		logg:      params.Logger,
		locations: params.Locations,
		units:     params.Units,
		metrics:   params.Metrics,
	}, nil
}

type stockAuditJob struct {
	logg      *logger.Logger
	locations locationAuditor
	units     backorderCounter
	metrics   *metrics.EngineMetrics
}

func (j *stockAuditJob) Name() string { return "stock-audit" }

func (j *stockAuditJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.auditLocations(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.refreshBackorderGauge(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

// auditLocations runs ValidateInvariants against every active location.
// A violation is a data defect, not a job failure: it is logged loudly
// and the sweep keeps going so one bad location cannot hide another.
func (j *stockAuditJob) auditLocations(ctx context.Context) error {
	sites, err := j.locations.List(ctx, false)
	if err != nil {
		return fmt.Errorf("list locations for audit: %w", err)
	}
	audited := 0
	violations := 0
	for _, site := range sites {
		violation, err := j.locations.ValidateInvariants(ctx, site.ID)
		if err != nil {
			return fmt.Errorf("audit location %s: %w", site.Code, err)
		}
		audited++
		if violation == nil {
			continue
		}
		violations++
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"location_id":   site.ID.String(),
			"location_code": site.Code,
			"kind":          violation.Kind,
			"detail":        violation.Message,
		})
		if violation.StockItemID != nil {
			logCtx = j.logg.WithField(logCtx, "stock_item_id", violation.StockItemID.String())
		}
		if violation.StoreLinkID != nil {
			logCtx = j.logg.WithField(logCtx, "store_link_id", violation.StoreLinkID.String())
		}
		j.logg.Error(logCtx, "stock invariant violated", nil)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"audited":    audited,
		"violations": violations,
	})
	j.logg.Info(logCtx, "stock audit sweep complete")
	return nil
}

func (j *stockAuditJob) refreshBackorderGauge(ctx context.Context) error {
	count, err := j.units.CountBackordered(ctx)
	if err != nil {
		return fmt.Errorf("count backordered units: %w", err)
	}
	if j.metrics != nil {
		j.metrics.SetBackorderedUnits(float64(count))
	}
	return nil
}
