package ledger

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/shopspring/decimal"
)

type Repository interface {
	GetVendor(ctx context.Context, vendorID string) (*model.Vendor, error)

	// UpdateBalance writes the cached balance only if the row is still at
	// fromVersion, and moves it to toVersion.
	UpdateBalance(ctx context.Context, vendorID string, balance decimal.Decimal, fromVersion, toVersion int64, now time.Time) error

	// Append-only log
	AppendTransaction(ctx context.Context, tx *model.CapitalTransaction) error
	ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.CapitalTransaction, int, error)
	AllTransactions(ctx context.Context, vendorID string) ([]model.CapitalTransaction, error)
	SearchByDescription(ctx context.Context, vendorID, query string, limit int) ([]model.CapitalTransaction, error)

	// Aggregates
	SummarizeByType(ctx context.Context, vendorID string) ([]dto.TypeTotal, error)
	SumPartnerDeposits(ctx context.Context, vendorID string) (decimal.Decimal, error)
}
