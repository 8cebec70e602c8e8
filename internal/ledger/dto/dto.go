package dto

import (
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/shopspring/decimal"
)

type TransactionFilters struct {
	VendorID  string                `json:"vendor_id"`
	Type      model.TransactionType `json:"type"`
	PartnerID string                `json:"partner_id"`
	StartDate *time.Time            `json:"start_date"`
	EndDate   *time.Time            `json:"end_date"`
	Page      int                   `json:"page"`
	PageSize  int                   `json:"page_size"`
}

type Balance struct {
	VendorID       string          `json:"vendor_id"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
	CapitalBalance decimal.Decimal `json:"capital_balance"`
	Version        int64           `json:"version"`
}

// TypeTotal is one row of the log grouped by transaction type.
type TypeTotal struct {
	Type  model.TransactionType `db:"type" json:"type"`
	Count int                   `db:"count" json:"count"`
	Total decimal.Decimal       `db:"total" json:"total"`
}

type LogIssue struct {
	Seq           int64  `json:"seq"`
	TransactionID string `json:"transaction_id"`
	Problem       string `json:"problem"`
}

type LogVerification struct {
	VendorID         string          `json:"vendor_id"`
	Consistent       bool            `json:"consistent"`
	TransactionCount int             `json:"transaction_count"`
	DerivedBalance   decimal.Decimal `json:"derived_balance"`
	StoredBalance    decimal.Decimal `json:"stored_balance"`
	Issues           []LogIssue      `json:"issues,omitempty"`
}

type RebuildResult struct {
	VendorID         string          `json:"vendor_id"`
	PreviousBalance  decimal.Decimal `json:"previous_balance"`
	RebuiltBalance   decimal.Decimal `json:"rebuilt_balance"`
	TransactionCount int             `json:"transaction_count"`
	Changed          bool            `json:"changed"`
}
