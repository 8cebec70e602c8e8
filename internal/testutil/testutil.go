// Package testutil provides a migrated SQLite database and seed helpers for
// repository and usecase tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/auth"
	"github.com/fekuna/omnipos-capital-service/pkg/database"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// NewDB opens a fresh SQLite database under t.TempDir with the schema applied.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.NewDB(&database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "capital.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func AdminContext() context.Context {
	return auth.WithUser(context.Background(), auth.UserContext{UserID: "admin-1", Role: auth.RoleAdmin})
}

func VendorContext(vendorID string) context.Context {
	return auth.WithUser(context.Background(), auth.UserContext{VendorID: vendorID, UserID: "owner-" + vendorID, Role: auth.RoleVendor})
}

// SeedVendor inserts a vendor whose balance equals its initial capital and
// returns its id.
func SeedVendor(t *testing.T, db *sqlx.DB, initial string) string {
	t.Helper()

	id := uuid.New().String()
	now := time.Now().UTC()
	amount := decimal.RequireFromString(initial)
	_, err := db.Exec(db.Rebind(`
		INSERT INTO vendors (id, name, email, initial_capital, capital_balance, commission_rate, balance_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`),
		id, "Vendor "+id[:8], id+"@example.com", amount, amount, decimal.Zero, now, now)
	require.NoError(t, err)
	return id
}

// SeedProduct inserts a product and returns its id. cost is the supplier cost;
// an empty string leaves it NULL.
func SeedProduct(t *testing.T, db *sqlx.DB, vendorID, source, cost string, stock int64) string {
	t.Helper()

	id := uuid.New().String()
	now := time.Now().UTC()
	var supplierCost decimal.NullDecimal
	if cost != "" {
		supplierCost = decimal.NewNullDecimal(decimal.RequireFromString(cost))
	}
	var supplierID *string
	if source == "CONSIGNMENT" {
		s := "supplier-" + id[:8]
		supplierID = &s
	}
	_, err := db.Exec(db.Rebind(`
		INSERT INTO products (id, vendor_id, supplier_id, sku, name, product_source, supplier_cost, production_cost, stock_quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?, ?, ?)`),
		id, vendorID, supplierID, "SKU-"+id[:8], "Product "+id[:8], source, supplierCost, stock, now, now)
	require.NoError(t, err)
	return id
}
