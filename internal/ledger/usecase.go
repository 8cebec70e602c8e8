package ledger

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-capital-service/internal/model"
)

type UseCase interface {
	// PostTransaction is the public posting entry point: role check, vendor
	// lock, one DB transaction, retry on concurrent update.
	PostTransaction(ctx context.Context, input *dto.PostTransactionInput) (*model.CapitalTransaction, error)

	// Post applies a posting inside the caller's transaction. Composites call
	// it from within RunAtomic.
	Post(ctx context.Context, input *dto.PostTransactionInput) (*model.CapitalTransaction, error)

	// RunAtomic runs fn under the vendor lock in a single DB transaction and
	// retries it when a concurrent posting moved the balance.
	RunAtomic(ctx context.Context, vendorID string, fn func(ctx context.Context) error) error

	GetBalance(ctx context.Context, vendorID string) (*dto.Balance, error)
	ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.CapitalTransaction, int, error)
	SearchTransactions(ctx context.Context, vendorID, query string, limit int) ([]model.CapitalTransaction, error)
	VerifyLog(ctx context.Context, vendorID string) (*dto.LogVerification, error)
	RebuildBalance(ctx context.Context, vendorID string) (*dto.RebuildResult, error)
}
