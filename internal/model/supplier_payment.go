package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)

// SupplierPayment is money owed to a consignment supplier for sold units. It is
// a liability, not part of the capital balance, until it is paid.
type SupplierPayment struct {
	ID                   string          `db:"id" json:"id"`
	VendorID             string          `db:"vendor_id" json:"vendor_id"`
	SupplierID           string          `db:"supplier_id" json:"supplier_id"`
	ProductID            string          `db:"product_id" json:"product_id"`
	OrderID              string          `db:"order_id" json:"order_id"`
	Quantity             int64           `db:"quantity" json:"quantity"`
	UnitCost             decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	Amount               decimal.Decimal `db:"amount" json:"amount"`
	Status               PaymentStatus   `db:"status" json:"status"`
	CapitalTransactionID *string         `db:"capital_transaction_id" json:"capital_transaction_id,omitempty"`
	PaidAt               *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
}
