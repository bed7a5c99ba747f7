package locations

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
)

func setupLocationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	stockLocations := `
CREATE TABLE IF NOT EXISTS stock_locations (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  name TEXT NOT NULL,
  is_default INTEGER NOT NULL DEFAULT 0,
  address TEXT,
  tags TEXT,
  deleted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	storeLinks := `
CREATE TABLE IF NOT EXISTS store_links (
  id TEXT PRIMARY KEY,
  stock_location_id TEXT NOT NULL,
  store_id TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(`DROP TABLE IF EXISTS stock_locations`).Error)
	require.NoError(t, db.Exec(`DROP TABLE IF EXISTS store_links`).Error)
	require.NoError(t, db.Exec(stockLocations).Error)
	require.NoError(t, db.Exec(storeLinks).Error)
	return db
}

func createLocation(t *testing.T, db *gorm.DB, code string, isDefault bool, deletedAt *time.Time) *models.StockLocation {
	t.Helper()

	location := &models.StockLocation{
		ID:        uuid.New(),
		Code:      code,
		Name:      code,
		IsDefault: isDefault,
		DeletedAt: deletedAt,
	}
	require.NoError(t, db.Create(location).Error)
	return location
}

func TestRepositoryFindByCodeSkipsDeleted(t *testing.T) {
	db := setupLocationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	deletedAt := time.Now()
	createLocation(t, db, "EAST", false, &deletedAt)
	live := createLocation(t, db, "EAST", false, nil)

	found, err := repo.FindByCode(ctx, "EAST")
	require.NoError(t, err)
	assert.Equal(t, live.ID, found.ID)
}

func TestRepositoryListFiltersDeleted(t *testing.T) {
	db := setupLocationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	deletedAt := time.Now()
	createLocation(t, db, "EAST", true, nil)
	createLocation(t, db, "WEST", false, &deletedAt)

	active, err := repo.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := repo.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	count, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryClearDefaultOnlyTouchesActive(t *testing.T) {
	db := setupLocationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	deletedAt := time.Now()
	current := createLocation(t, db, "EAST", true, nil)
	buried := createLocation(t, db, "WEST", true, &deletedAt)

	require.NoError(t, repo.ClearDefault(ctx))

	var reloaded models.StockLocation
	require.NoError(t, db.First(&reloaded, "id = ?", current.ID).Error)
	assert.False(t, reloaded.IsDefault)

	var reloadedBuried models.StockLocation
	require.NoError(t, db.First(&reloadedBuried, "id = ?", buried.ID).Error)
	assert.True(t, reloadedBuried.IsDefault)
}

func TestRepositoryStoreLinkRoundTrip(t *testing.T) {
	db := setupLocationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	location := createLocation(t, db, "EAST", true, nil)
	storeID := uuid.New()

	link := &models.StoreLink{ID: uuid.New(), StockLocationID: location.ID, StoreID: storeID}
	require.NoError(t, repo.CreateStoreLink(ctx, link))

	found, err := repo.FindStoreLink(ctx, location.ID, storeID)
	require.NoError(t, err)
	assert.Equal(t, link.ID, found.ID)

	links, err := repo.ListStoreLinks(ctx, location.ID)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	require.NoError(t, repo.DeleteStoreLink(ctx, location.ID, storeID))
	_, err = repo.FindStoreLink(ctx, location.ID, storeID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
