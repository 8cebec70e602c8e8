package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is valid for both PostgreSQL and SQLite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS vendors (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		email            TEXT NOT NULL UNIQUE,
		initial_capital  NUMERIC(18,4) NOT NULL,
		capital_balance  NUMERIC(18,4) NOT NULL,
		commission_rate  NUMERIC(7,4) NOT NULL DEFAULT 0,
		balance_version  BIGINT NOT NULL DEFAULT 0,
		created_at       TIMESTAMP NOT NULL,
		updated_at       TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS partners (
		id                TEXT PRIMARY KEY,
		vendor_id         TEXT NOT NULL REFERENCES vendors(id),
		user_id           TEXT,
		partner_name      TEXT NOT NULL,
		partner_type      TEXT NOT NULL,
		initial_amount    NUMERIC(18,4) NOT NULL,
		current_amount    NUMERIC(18,4) NOT NULL,
		capital_percent   NUMERIC(9,4) NOT NULL,
		requested_percent NUMERIC(9,4),
		percent_as_of     TIMESTAMP NOT NULL,
		created_at        TIMESTAMP NOT NULL,
		updated_at        TIMESTAMP NOT NULL,
		UNIQUE (vendor_id, partner_name)
	)`,
	`CREATE TABLE IF NOT EXISTS capital_transactions (
		id              TEXT PRIMARY KEY,
		vendor_id       TEXT NOT NULL REFERENCES vendors(id),
		seq             BIGINT NOT NULL,
		type            TEXT NOT NULL,
		amount          NUMERIC(18,4) NOT NULL,
		balance_before  NUMERIC(18,4) NOT NULL,
		balance_after   NUMERIC(18,4) NOT NULL,
		partner_id      TEXT REFERENCES partners(id),
		reference_type  TEXT,
		reference_id    TEXT,
		description     TEXT NOT NULL,
		created_by      TEXT,
		created_at      TIMESTAMP NOT NULL,
		UNIQUE (vendor_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_capital_transactions_reference
		ON capital_transactions (vendor_id, reference_type, reference_id)`,
	`CREATE TABLE IF NOT EXISTS products (
		id               TEXT PRIMARY KEY,
		vendor_id        TEXT NOT NULL REFERENCES vendors(id),
		supplier_id      TEXT,
		sku              TEXT NOT NULL,
		name             TEXT NOT NULL,
		product_source   TEXT NOT NULL,
		supplier_cost    NUMERIC(18,4),
		production_cost  NUMERIC(18,4),
		stock_quantity   BIGINT NOT NULL DEFAULT 0,
		created_at       TIMESTAMP NOT NULL,
		updated_at       TIMESTAMP NOT NULL,
		UNIQUE (vendor_id, sku)
	)`,
	`CREATE TABLE IF NOT EXISTS supplier_payments (
		id                      TEXT PRIMARY KEY,
		vendor_id               TEXT NOT NULL REFERENCES vendors(id),
		supplier_id             TEXT NOT NULL,
		product_id              TEXT NOT NULL REFERENCES products(id),
		order_id                TEXT NOT NULL,
		quantity                BIGINT NOT NULL,
		unit_cost               NUMERIC(18,4) NOT NULL,
		amount                  NUMERIC(18,4) NOT NULL,
		status                  TEXT NOT NULL,
		capital_transaction_id  TEXT REFERENCES capital_transactions(id),
		paid_at                 TIMESTAMP,
		created_at              TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_supplier_payments_pending
		ON supplier_payments (vendor_id, supplier_id, status)`,
	`CREATE TABLE IF NOT EXISTS applied_orders (
		vendor_id   TEXT NOT NULL REFERENCES vendors(id),
		order_id    TEXT NOT NULL,
		applied_at  TIMESTAMP NOT NULL,
		PRIMARY KEY (vendor_id, order_id)
	)`,
}

// Migrate creates every table that does not exist yet.
func Migrate(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
