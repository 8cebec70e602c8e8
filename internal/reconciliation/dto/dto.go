package dto

import (
	"time"

	ledgerdto "github.com/fekuna/omnipos-capital-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	payabledto "github.com/fekuna/omnipos-capital-service/internal/payable/dto"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusBalanced           Status = "BALANCED"
	StatusHigherThanExpected Status = "HIGHER_THAN_EXPECTED"
	StatusLowerThanExpected  Status = "LOWER_THAN_EXPECTED"
)

// Cause is one probable explanation for a variance. Amount is the log total
// that supports it, when there is one.
type Cause struct {
	Code        string           `json:"code"`
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
}

type TypeSummary struct {
	Type   model.TransactionType `json:"type"`
	Count  int                   `json:"count"`
	Gross  decimal.Decimal       `json:"gross"`
	Signed decimal.Decimal       `json:"signed"`
}

type Report struct {
	VendorID             string          `json:"vendor_id"`
	InitialCapital       decimal.Decimal `json:"initial_capital"`
	PartnerContributions decimal.Decimal `json:"partner_contributions"`
	ContributedCapital   decimal.Decimal `json:"contributed_capital"`

	OwnedStockValue       decimal.Decimal `json:"owned_stock_value"`
	ConsignmentStockValue decimal.Decimal `json:"consignment_stock_value"`

	ExpectedCapital decimal.Decimal `json:"expected_capital"`
	ActualCapital   decimal.Decimal `json:"actual_capital"`
	Variance        decimal.Decimal `json:"variance"`
	Status          Status          `json:"status"`
	ProbableCauses  []Cause         `json:"probable_causes,omitempty"`

	TransactionSummary []TypeSummary   `json:"transaction_summary"`
	NetPostings        decimal.Decimal `json:"net_postings"`

	PendingSupplierPayables decimal.Decimal            `json:"pending_supplier_payables"`
	PendingBySupplier       []payabledto.SupplierTotal `json:"pending_by_supplier"`

	Log         *ledgerdto.LogVerification `json:"log"`
	GeneratedAt time.Time                  `json:"generated_at"`
}
