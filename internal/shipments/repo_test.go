package shipments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/calderco/stockroom-backend/pkg/db/models"
	"github.com/calderco/stockroom-backend/pkg/enums"
)

func setupShipmentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	shipments := `
CREATE TABLE IF NOT EXISTS shipments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  number TEXT NOT NULL,
  stock_location_id TEXT NOT NULL,
  state TEXT NOT NULL DEFAULT 'pending',
  tracking TEXT,
  cost_cents INTEGER NOT NULL DEFAULT 0,
  shipped_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	inventoryUnits := `
CREATE TABLE IF NOT EXISTS inventory_units (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  line_item_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  shipment_id TEXT,
  stock_location_id TEXT,
  state TEXT NOT NULL DEFAULT 'on_hand',
  quantity INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`

	require.NoError(t, db.Exec(`DROP TABLE IF EXISTS inventory_units`).Error)
	require.NoError(t, db.Exec(`DROP TABLE IF EXISTS shipments`).Error)
	require.NoError(t, db.Exec(shipments).Error)
	require.NoError(t, db.Exec(inventoryUnits).Error)
	return db
}

func createShipment(t *testing.T, db *gorm.DB, orderID uuid.UUID, number string, created time.Time) *models.Shipment {
	t.Helper()

	shipment := &models.Shipment{
		ID:              uuid.New(),
		OrderID:         orderID,
		Number:          number,
		StockLocationID: uuid.New(),
		State:           enums.ShipmentStatePending,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	require.NoError(t, db.Create(shipment).Error)
	return shipment
}

func createUnit(t *testing.T, db *gorm.DB, shipment *models.Shipment, qty int, created time.Time) *models.InventoryUnit {
	t.Helper()

	locationID := shipment.StockLocationID
	unit := &models.InventoryUnit{
		ID:              uuid.New(),
		OrderID:         shipment.OrderID,
		LineItemID:      uuid.New(),
		VariantID:       uuid.New(),
		ShipmentID:      &shipment.ID,
		StockLocationID: &locationID,
		State:           enums.InventoryUnitStateOnHand,
		Quantity:        qty,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	require.NoError(t, db.Create(unit).Error)
	return unit
}

func TestShipmentsRepositoryFindByIDPreloadsUnits(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	shipment := createShipment(t, db, uuid.New(), "S000000001", now)
	second := createUnit(t, db, shipment, 2, now)
	first := createUnit(t, db, shipment, 5, now.Add(-time.Minute))

	found, err := repo.FindByID(ctx, shipment.ID)
	require.NoError(t, err)
	require.Len(t, found.Units, 2)
	assert.Equal(t, first.ID, found.Units[0].ID)
	assert.Equal(t, second.ID, found.Units[1].ID)
	assert.Equal(t, 5, found.Units[0].Quantity)
}

func TestShipmentsRepositoryFindByIDMissing(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestShipmentsRepositoryListByOrderInCreationOrder(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orderID := uuid.New()
	now := time.Now().UTC()
	newer := createShipment(t, db, orderID, "S000000002", now)
	older := createShipment(t, db, orderID, "S000000001", now.Add(-time.Hour))
	createShipment(t, db, uuid.New(), "S000000003", now)

	shipments, err := repo.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, shipments, 2)
	assert.Equal(t, older.ID, shipments[0].ID)
	assert.Equal(t, newer.ID, shipments[1].ID)
}

func TestShipmentsRepositoryUpdateAppliesColumns(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	shipment := createShipment(t, db, uuid.New(), "S000000001", time.Now().UTC())
	shippedAt := time.Now().UTC().Truncate(time.Second)

	err := repo.Update(ctx, shipment.ID, map[string]any{
		"state":      enums.ShipmentStateShipped,
		"tracking":   "1Z999AA10123456784",
		"shipped_at": shippedAt,
	})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStateShipped, found.State)
	require.NotNil(t, found.Tracking)
	assert.Equal(t, "1Z999AA10123456784", *found.Tracking)
	require.NotNil(t, found.ShippedAt)
}
