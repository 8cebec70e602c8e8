package dto

import (
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/shopspring/decimal"
)

type AccrueInput struct {
	VendorID   string `validate:"required"`
	SupplierID string `validate:"required"`
	ProductID  string `validate:"required"`
	OrderID    string `validate:"required"`
	Quantity   int64  `validate:"gt=0"`
	UnitCost   decimal.Decimal
}

type SettleInput struct {
	VendorID   string `json:"vendor_id" validate:"required"`
	SupplierID string `json:"supplier_id" validate:"required"`
	// AllowNegative lets the payment overdraw the capital balance. Suppliers
	// are owed the money whether or not the balance covers it.
	AllowNegative bool `json:"allow_negative"`
}

type SettleResult struct {
	SupplierID  string                    `json:"supplier_id"`
	Amount      decimal.Decimal           `json:"amount"`
	Payments    []model.SupplierPayment   `json:"payments"`
	Transaction *model.CapitalTransaction `json:"transaction"`
}

// SupplierTotal is the unpaid amount owed to one supplier.
type SupplierTotal struct {
	SupplierID string          `db:"supplier_id" json:"supplier_id"`
	Count      int             `db:"count" json:"count"`
	Total      decimal.Decimal `db:"total" json:"total"`
}

type PaymentFilters struct {
	VendorID   string              `json:"vendor_id"`
	SupplierID string              `json:"supplier_id"`
	Status     model.PaymentStatus `json:"status"`
	StartDate  *time.Time          `json:"start_date"`
	EndDate    *time.Time          `json:"end_date"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
}
