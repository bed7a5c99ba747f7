package models

import "time"

// SequenceCounter backs gapless human-readable numbers for orders,
// shipments and transfers. Incremented with a row lock inside the
// creating transaction.
type SequenceCounter struct {
	Name      string    `gorm:"column:name;primaryKey"`
	Value     int64     `gorm:"column:value;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
