package router

import (
	"context"

	"github.com/calderco/stockroom-backend/internal/analytics/types"
)

type fakeWriter struct {
	stockRows []types.StockEventRow
	orderRows []types.OrderEventRow
	stockErr  error
	orderErr  error
}

func (f *fakeWriter) InsertStock(_ context.Context, row types.StockEventRow) error {
	if f.stockErr != nil {
		return f.stockErr
	}
	f.stockRows = append(f.stockRows, row)
	return nil
}

func (f *fakeWriter) InsertOrder(_ context.Context, row types.OrderEventRow) error {
	if f.orderErr != nil {
		return f.orderErr
	}
	f.orderRows = append(f.orderRows, row)
	return nil
}
