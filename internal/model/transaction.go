package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the closed set of capital-affecting events.
type TransactionType string

const (
	TransactionDeposit           TransactionType = "DEPOSIT"
	TransactionWithdrawal        TransactionType = "WITHDRAWAL"
	TransactionPurchase          TransactionType = "PURCHASE"
	TransactionPaymentToSupplier TransactionType = "PAYMENT_TO_SUPPLIER"
	TransactionSaleProceeds      TransactionType = "SALE_PROCEEDS"
)

// transactionSigns is the only place that decides which way a type moves the balance.
var transactionSigns = map[TransactionType]int64{
	TransactionDeposit:           1,
	TransactionSaleProceeds:      1,
	TransactionWithdrawal:        -1,
	TransactionPurchase:          -1,
	TransactionPaymentToSupplier: -1,
}

// TransactionTypes lists every type in a stable order.
func TransactionTypes() []TransactionType {
	return []TransactionType{
		TransactionDeposit,
		TransactionWithdrawal,
		TransactionPurchase,
		TransactionPaymentToSupplier,
		TransactionSaleProceeds,
	}
}

func (t TransactionType) Valid() bool {
	_, ok := transactionSigns[t]
	return ok
}

// Sign is +1 for increasing types, -1 for decreasing ones and 0 for unknown types.
func (t TransactionType) Sign() int64 {
	return transactionSigns[t]
}

func (t TransactionType) Decreases() bool {
	return t.Sign() < 0
}

// Signed returns amount with the direction of t applied.
func (t TransactionType) Signed(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(t.Sign()))
}

// Apply returns the balance after posting amount of type t onto balance.
func (t TransactionType) Apply(balance, amount decimal.Decimal) decimal.Decimal {
	return balance.Add(t.Signed(amount))
}

// CapitalTransaction is an immutable ledger row. BalanceBefore and BalanceAfter
// are captured at posting time and never recomputed.
type CapitalTransaction struct {
	ID            string          `db:"id" json:"id"`
	VendorID      string          `db:"vendor_id" json:"vendor_id"`
	Seq           int64           `db:"seq" json:"seq"`
	Type          TransactionType `db:"type" json:"type"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before" json:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after" json:"balance_after"`
	PartnerID     *string         `db:"partner_id" json:"partner_id,omitempty"`
	ReferenceType *string         `db:"reference_type" json:"reference_type,omitempty"`
	ReferenceID   *string         `db:"reference_id" json:"reference_id,omitempty"`
	Description   string          `db:"description" json:"description"`
	CreatedBy     *string         `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Consistent reports whether the row's own arithmetic holds.
func (t *CapitalTransaction) Consistent() bool {
	return t.Type.Apply(t.BalanceBefore, t.Amount).Equal(t.BalanceAfter)
}
