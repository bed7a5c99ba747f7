package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
	"github.com/calderco/stockroom-backend/pkg/logger"
)

const (
	defaultCartMaxAge = 14 * 24 * time.Hour
	cartExpiryReason  = "cart expired"
)

// CartExpiryJobParams configure the abandoned cart sweep.
type CartExpiryJobParams struct {
	Logger *logger.Logger
	Orders staleCartReader
	Cancel orderCanceler
	MaxAge time.Duration
}

type staleCartReader interface {
	FindCartsBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type orderCanceler interface {
	Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
}

// NewCartExpiryJob builds the job that cancels orders abandoned at the
// cart step. Cancel runs through the order service so the usual events
// fire and any rows the aggregate owns are cleaned up with it.
func NewCartExpiryJob(params CartExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Cancel == nil {
		return nil, fmt.Errorf("order service required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultCartMaxAge
	}
	return &cartExpiryJob{
		logg:   params.Logger,
		orders: params.Orders,
		cancel: params.Cancel,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

type cartExpiryJob struct {
	logg   *logger.Logger
	orders staleCartReader
	cancel orderCanceler
	maxAge time.Duration
	now    func() time.Time
}

func (j *cartExpiryJob) Name() string { return "cart-expiry" }

func (j *cartExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	stale, err := j.orders.FindCartsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale carts: %w", err)
	}
	expired := 0
	for _, order := range stale {
		canceled, err := j.expireCart(ctx, order.ID, cutoff)
		if err != nil {
			return err
		}
		if canceled {
			expired++
		}
	}
	if len(stale) > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"stale":   len(stale),
			"expired": expired,
		})
		j.logg.Info(logCtx, "cart expiry sweep complete")
	}
	return nil
}

// expireCart re-reads the order before canceling: a cart the customer
// touched or advanced since the sweep query started is left alone.
func (j *cartExpiryJob) expireCart(ctx context.Context, orderID uuid.UUID, cutoff time.Time) (bool, error) {
	current, err := j.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("reload cart %s: %w", orderID, err)
	}
	if current.State != enums.OrderStateCart || !current.UpdatedAt.Before(cutoff) {
		return false, nil
	}
	if _, err := j.cancel.Cancel(ctx, orderID, cartExpiryReason); err != nil {
		return false, fmt.Errorf("expire cart %s: %w", orderID, err)
	}
	return true, nil
}
