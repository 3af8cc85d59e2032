// Package dbtest opens isolated in-memory sqlite databases carrying the ledger
// schema. Column names and non-negativity checks mirror the goose migrations;
// Postgres enums become TEXT and numeric(12,2) becomes NUMERIC.
package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/drinkroute/distribution-backend/pkg/db/models"
	"github.com/drinkroute/distribution-backend/pkg/enums"
)

const lineColumns = `
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  role TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  price_at_time NUMERIC NOT NULL CHECK (price_at_time >= 0),
  line_total NUMERIC NOT NULL`

var schema = []string{
	`CREATE TABLE users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  full_name TEXT,
  role TEXT NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0,
  is_archived INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT ux_products_name UNIQUE (name),
  CONSTRAINT ck_products_quantity CHECK (quantity >= 0)
);`,
	`CREATE TABLE driver_stock (
  id TEXT PRIMARY KEY,
  driver_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT ux_driver_stock_driver_product UNIQUE (driver_id, product_id),
  CONSTRAINT ck_driver_stock_quantity CHECK (quantity >= 0)
);`,
	`CREATE TABLE shops (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  address TEXT,
  phone TEXT,
  fridge_number TEXT,
  driver_id TEXT,
  debt NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT ck_shops_debt CHECK (debt >= 0)
);`,
	`CREATE TABLE counterparties (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  phone TEXT,
  debt NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT ck_counterparties_debt CHECK (debt >= 0)
);`,
	`CREATE TABLE incomings (
  id TEXT PRIMARY KEY,
  created_by TEXT NOT NULL,
  note TEXT,
  total_amount NUMERIC NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE incoming_items (
  id TEXT PRIMARY KEY,
  incoming_id TEXT NOT NULL,` + lineColumns + `
);`,
	`CREATE TABLE dispatches (
  id TEXT PRIMARY KEY,
  driver_id TEXT NOT NULL,
  created_by TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  total_amount NUMERIC NOT NULL,
  note TEXT,
  created_at DATETIME,
  accepted_at DATETIME
);`,
	`CREATE TABLE dispatch_items (
  id TEXT PRIMARY KEY,
  dispatch_id TEXT NOT NULL,` + lineColumns + `
);`,
	`CREATE TABLE shop_orders (
  id TEXT PRIMARY KEY,
  driver_id TEXT NOT NULL,
  shop_id TEXT NOT NULL,
  total_goods_amount NUMERIC NOT NULL,
  returns_amount NUMERIC NOT NULL,
  bonus_amount NUMERIC NOT NULL,
  payable_amount NUMERIC NOT NULL,
  paid_amount NUMERIC NOT NULL,
  debt_amount NUMERIC NOT NULL,
  shop_debt_before NUMERIC NOT NULL,
  shop_debt_after NUMERIC NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE shop_order_items (
  id TEXT PRIMARY KEY,
  shop_order_id TEXT NOT NULL,` + lineColumns + `
);`,
	`CREATE TABLE counterparty_sales (
  id TEXT PRIMARY KEY,
  driver_id TEXT,
  counterparty_id TEXT NOT NULL,
  created_by TEXT NOT NULL,
  total_amount NUMERIC NOT NULL,
  bonus_amount NUMERIC NOT NULL,
  kaspi_amount NUMERIC NOT NULL,
  cash_amount NUMERIC NOT NULL,
  debt_amount NUMERIC NOT NULL,
  party_debt_after NUMERIC NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE counterparty_sale_items (
  id TEXT PRIMARY KEY,
  sale_id TEXT NOT NULL,` + lineColumns + `
);`,
	`CREATE TABLE return_docs (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  driver_id TEXT NOT NULL,
  shop_id TEXT,
  total_amount NUMERIC NOT NULL,
  note TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE return_doc_items (
  id TEXT PRIMARY KEY,
  return_doc_id TEXT NOT NULL,` + lineColumns + `
);`,
	`CREATE TABLE debt_payments (
  id TEXT PRIMARY KEY,
  party_type TEXT NOT NULL,
  party_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  debt_before NUMERIC NOT NULL,
  debt_after NUMERIC NOT NULL CHECK (debt_after >= 0),
  created_by TEXT NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
	`CREATE TABLE outbox_dlq (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload_json TEXT NOT NULL,
  error_reason TEXT NOT NULL,
  error_message TEXT,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  failed_at DATETIME,
  created_at DATETIME
);`,
}

// Open returns a fresh database with the full ledger schema. The pool is
// pinned to one connection so shared-cache sqlite never reports table locks.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:ledger_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

// SeedUser inserts a user with the given role.
func SeedUser(t *testing.T, conn *gorm.DB, username string, role enums.UserRole) models.User {
	t.Helper()
	user := models.User{ID: uuid.New(), Username: username, Role: role}
	require.NoError(t, conn.Create(&user).Error)
	return user
}

// SeedProduct inserts a product with main stock qty at the given price.
func SeedProduct(t *testing.T, conn *gorm.DB, name string, price string, qty int) models.Product {
	t.Helper()
	product := models.Product{
		ID:       uuid.New(),
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
	}
	require.NoError(t, conn.Create(&product).Error)
	return product
}

// SeedDriverStock sets the driver's holding of a product.
func SeedDriverStock(t *testing.T, conn *gorm.DB, driverID, productID uuid.UUID, qty int) {
	t.Helper()
	row := models.DriverStock{ID: uuid.New(), DriverID: driverID, ProductID: productID, Quantity: qty}
	require.NoError(t, conn.Create(&row).Error)
}

// SeedShop inserts a shop carrying the given debt.
func SeedShop(t *testing.T, conn *gorm.DB, name string, debt string) models.Shop {
	t.Helper()
	shop := models.Shop{ID: uuid.New(), Name: name, Debt: decimal.RequireFromString(debt)}
	require.NoError(t, conn.Create(&shop).Error)
	return shop
}

// SeedCounterparty inserts a counterparty carrying the given debt.
func SeedCounterparty(t *testing.T, conn *gorm.DB, name string, debt string) models.Counterparty {
	t.Helper()
	cp := models.Counterparty{ID: uuid.New(), Name: name, Debt: decimal.RequireFromString(debt)}
	require.NoError(t, conn.Create(&cp).Error)
	return cp
}

// MainQty reads the main warehouse quantity of a product.
func MainQty(t *testing.T, conn *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var product models.Product
	require.NoError(t, conn.First(&product, "id = ?", productID).Error)
	return product.Quantity
}

// DriverQty reads a driver's quantity of a product; a missing row reads as zero.
func DriverQty(t *testing.T, conn *gorm.DB, driverID, productID uuid.UUID) int {
	t.Helper()
	var rows []models.DriverStock
	require.NoError(t, conn.Where("driver_id = ? AND product_id = ?", driverID, productID).Find(&rows).Error)
	if len(rows) == 0 {
		return 0
	}
	return rows[0].Quantity
}

// CountRows counts rows in table.
func CountRows(t *testing.T, conn *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Table(table).Count(&n).Error)
	return n
}
