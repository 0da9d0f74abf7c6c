package links

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cycle3/supplysync-backend/pkg/db/models"
)

func setupLinksTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	suppliers := `
CREATE TABLE IF NOT EXISTS suppliers (
  id TEXT PRIMARY KEY,
  shop TEXT NOT NULL,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  lead_time_days INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'active',
  channel TEXT NOT NULL DEFAULT 'email',
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (shop, name)
);`
	links := `
CREATE TABLE IF NOT EXISTS product_supplier_links (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  supplier_id TEXT NOT NULL,
  priority INTEGER NOT NULL DEFAULT 0,
  unit_price NUMERIC NOT NULL,
  stock_level INTEGER NOT NULL DEFAULT 0,
  minimum_order INTEGER NOT NULL DEFAULT 1,
  version INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (product_id, supplier_id)
);`
	require.NoError(t, db.Exec(suppliers).Error)
	require.NoError(t, db.Exec(links).Error)
	return db
}

func newTestSupplier(t *testing.T, db *gorm.DB) *models.Supplier {
	t.Helper()
	supplier := &models.Supplier{
		ID:    uuid.New(),
		Shop:  "demo.myshopify.com",
		Name:  "Supplier " + uuid.NewString(),
		Email: "supplier@test",
	}
	require.NoError(t, db.Create(supplier).Error)
	return supplier
}

func TestRepositoryUpsertCreatesThenUpdates(t *testing.T) {
	db := setupLinksTestDB(t)
	repo := NewRepository(db)
	supplier := newTestSupplier(t, db)
	productID := "prod-" + uuid.NewString()

	first, created, err := repo.Upsert(context.Background(), UpsertLinkDTO{
		ProductID:  productID,
		SupplierID: supplier.ID,
		Priority:   1,
		UnitPrice:  decimal.RequireFromString("10.50"),
		StockLevel: 5,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1), first.Version)

	second, created, err := repo.Upsert(context.Background(), UpsertLinkDTO{
		ProductID:  productID,
		SupplierID: supplier.ID,
		Priority:   3,
		UnitPrice:  decimal.RequireFromString("9.75"),
		StockLevel: 50,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.Priority)
	assert.Equal(t, 50, second.StockLevel)
	assert.True(t, second.UnitPrice.Equal(decimal.RequireFromString("9.75")))

	var count int64
	require.NoError(t, db.Model(&models.ProductSupplierLink{}).
		Where("product_id = ? AND supplier_id = ?", productID, supplier.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryListForProductOrdersByPriority(t *testing.T) {
	db := setupLinksTestDB(t)
	repo := NewRepository(db)
	productID := "prod-" + uuid.NewString()

	high := newTestSupplier(t, db)
	low := newTestSupplier(t, db)

	_, _, err := repo.Upsert(context.Background(), UpsertLinkDTO{
		ProductID:  productID,
		SupplierID: low.ID,
		Priority:   5,
		UnitPrice:  decimal.RequireFromString("12"),
		StockLevel: 100,
	})
	require.NoError(t, err)
	_, _, err = repo.Upsert(context.Background(), UpsertLinkDTO{
		ProductID:  productID,
		SupplierID: high.ID,
		Priority:   1,
		UnitPrice:  decimal.RequireFromString("10"),
		StockLevel: 5,
	})
	require.NoError(t, err)

	rows, err := repo.ListForProduct(context.Background(), productID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, high.ID, rows[0].SupplierID)
	assert.Equal(t, low.ID, rows[1].SupplierID)
}

func TestRepositoryUpdateStockTxVersionCheck(t *testing.T) {
	db := setupLinksTestDB(t)
	repo := NewRepository(db)
	supplier := newTestSupplier(t, db)
	productID := "prod-" + uuid.NewString()

	link, _, err := repo.Upsert(context.Background(), UpsertLinkDTO{
		ProductID:  productID,
		SupplierID: supplier.ID,
		Priority:   1,
		UnitPrice:  decimal.RequireFromString("10"),
		StockLevel: 8,
	})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStockTx(db, link.ID, 5, link.Version))

	var reloaded models.ProductSupplierLink
	require.NoError(t, db.First(&reloaded, "id = ?", link.ID).Error)
	assert.Equal(t, 5, reloaded.StockLevel)
	assert.Equal(t, link.Version+1, reloaded.Version)

	// A second write with the consumed version must lose.
	err = repo.UpdateStockTx(db, link.ID, 2, link.Version)
	require.ErrorIs(t, err, ErrVersionConflict)
}

func TestRepositoryDelete(t *testing.T) {
	db := setupLinksTestDB(t)
	repo := NewRepository(db)
	supplier := newTestSupplier(t, db)
	productID := "prod-" + uuid.NewString()

	link, _, err := repo.Upsert(context.Background(), UpsertLinkDTO{
		ProductID:  productID,
		SupplierID: supplier.ID,
		UnitPrice:  decimal.RequireFromString("1"),
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), link.ID))

	_, err = repo.FindByID(context.Background(), link.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
