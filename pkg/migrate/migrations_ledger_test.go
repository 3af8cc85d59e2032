package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drinkroute/distribution-backend/pkg/migrate"
	"github.com/stretchr/testify/require"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected one %s migration", suffix)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestLedgerMigrationsContainConstraints(t *testing.T) {
	cases := []struct {
		file   string
		checks []string
	}{
		{
			file: "create_products",
			checks: []string{
				"CREATE TABLE IF NOT EXISTS products",
				"CONSTRAINT ux_products_name UNIQUE (name)",
				"CHECK (quantity >= 0)",
				"DROP TABLE IF EXISTS products",
			},
		},
		{
			file: "create_driver_stock",
			checks: []string{
				"CREATE TABLE IF NOT EXISTS driver_stock",
				"UNIQUE (driver_id, product_id)",
				"CHECK (quantity >= 0)",
				"FOREIGN KEY (product_id) REFERENCES products(id)",
			},
		},
		{
			file: "create_parties",
			checks: []string{
				"CREATE TABLE IF NOT EXISTS shops",
				"CREATE TABLE IF NOT EXISTS counterparties",
				"CONSTRAINT ck_shops_debt CHECK (debt >= 0)",
				"CONSTRAINT ck_counterparties_debt CHECK (debt >= 0)",
			},
		},
		{
			file: "create_dispatches",
			checks: []string{
				"status dispatch_status NOT NULL DEFAULT 'pending'",
				"price_at_time numeric(12,2) NOT NULL",
				"CHECK (quantity > 0)",
			},
		},
		{
			file: "create_debt_payments",
			checks: []string{
				"CHECK (amount > 0)",
				"CHECK (debt_after >= 0)",
			},
		},
		{
			file: "create_outbox",
			checks: []string{
				"CREATE TABLE IF NOT EXISTS outbox_events",
				"CREATE TABLE IF NOT EXISTS outbox_dlq",
				"'dispatch_accepted'",
				"'debt_paid'",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.file, func(t *testing.T) {
			content := readMigration(t, tc.file)
			for _, sub := range tc.checks {
				require.Contains(t, content, sub)
			}
		})
	}
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))

	err := migrate.ValidateDir(dir)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "invalid migration filename"))
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Shop Notes!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_shop_notes.sql"))
	require.NoError(t, migrate.ValidateDir(dir))
}
