package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/calderco/stockroom-backend/pkg/types"
)

// StockLocation represents a warehouse or fulfillment site holding stock.
// Deactivated locations keep their row so movement history stays intact.
type StockLocation struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string         `gorm:"column:code;not null"`
	Name      string         `gorm:"column:name;not null"`
	IsDefault bool           `gorm:"column:is_default;not null;default:false"`
	Address   *types.Address `gorm:"column:address;type:address_t"`
	Tags      pq.StringArray `gorm:"column:tags;type:text[]"`
	DeletedAt *time.Time     `gorm:"column:deleted_at"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// Active reports whether the location is still accepting stock operations.
func (l StockLocation) Active() bool {
	return l.DeletedAt == nil
}
