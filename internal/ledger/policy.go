package ledger

import (
	"fmt"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/shopspring/decimal"
)

const (
	ReferenceManual             = "manual"
	ReferenceOrder              = "order"
	ReferencePartnerAdmission   = "partner_admission"
	ReferenceSupplierSettlement = "supplier_settlement"
	ReferencePurchase           = "purchase"

	AuditIndex = "capital_transactions"

	// MoneyScale is the number of decimal places every stored amount keeps.
	MoneyScale = 4
)

type Policy struct {
	EnforceNonNegative bool
	MaxAmount          decimal.Decimal
	MaxRetries         int
}

var DefaultPolicy = Policy{
	EnforceNonNegative: true,
	MaxAmount:          decimal.NewFromInt(1_000_000_000),
	MaxRetries:         5,
}

// ValidateAmount accepts strictly positive amounts up to max. A zero max disables the ceiling.
func ValidateAmount(amount, max decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.Wrapf(apperr.ErrInvalidAmount, "amount %s must be positive", amount)
	}
	if err := ValidateScale(amount); err != nil {
		return err
	}
	if max.IsPositive() && amount.GreaterThan(max) {
		return apperr.Wrapf(apperr.ErrInvalidAmount, "amount %s exceeds limit %s", amount, max)
	}
	return nil
}

// ValidateScale rejects values the NUMERIC(18,4) columns would round.
func ValidateScale(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(MoneyScale)) {
		return apperr.Wrapf(apperr.ErrInvalidAmount, "amount %s has more than %d decimal places", amount, MoneyScale)
	}
	return nil
}

// ReportCacheKey is the cache entry invalidated after every posting.
func ReportCacheKey(vendorID string) string {
	return fmt.Sprintf("capital:reconciliation:%s", vendorID)
}

// LockKey serializes postings for one vendor across instances.
func LockKey(vendorID string) string {
	return fmt.Sprintf("lock:capital:%s", vendorID)
}
