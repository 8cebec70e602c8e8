package model

import "github.com/shopspring/decimal"

// Vendor holds a capital balance. CapitalBalance is a cache of
// InitialCapital plus the signed sum of the vendor's transaction log and is
// written only by the ledger.
type Vendor struct {
	BaseModel
	Name           string          `db:"name" json:"name"`
	Email          string          `db:"email" json:"email"`
	InitialCapital decimal.Decimal `db:"initial_capital" json:"initial_capital"`
	CapitalBalance decimal.Decimal `db:"capital_balance" json:"capital_balance"`
	CommissionRate decimal.Decimal `db:"commission_rate" json:"commission_rate"`
	BalanceVersion int64           `db:"balance_version" json:"balance_version"`
}
