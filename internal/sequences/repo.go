package sequences

import (
	"context"

	"gorm.io/gorm"
)

// Repository hands out monotonically increasing values for named counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Next(ctx context.Context, name string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sequence repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Next increments the named counter and returns the new value. The upsert
// keeps the read-increment-write atomic so concurrent callers never see the
// same value twice.
func (r *repository) Next(ctx context.Context, name string) (int64, error) {
	const query = `
		INSERT INTO sequence_counters (name, value, updated_at)
		VALUES (?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (name) DO UPDATE
		SET value = sequence_counters.value + 1, updated_at = CURRENT_TIMESTAMP
		RETURNING value`

	var value int64
	if err := r.db.WithContext(ctx).Raw(query, name).Scan(&value).Error; err != nil {
		return 0, err
	}
	return value, nil
}
