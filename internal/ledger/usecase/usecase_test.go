package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/fekuna/omnipos-capital-service/internal/auth"
	"github.com/fekuna/omnipos-capital-service/internal/ledger"
	"github.com/fekuna/omnipos-capital-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-capital-service/internal/ledger/repository"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/testutil"
	"github.com/fekuna/omnipos-capital-service/pkg/cache"
	"github.com/fekuna/omnipos-capital-service/pkg/database"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newUseCase(t *testing.T, policy ledger.Policy) (ledger.UseCase, *sqlx.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	uc := NewLedgerUseCase(repository.NewPGRepository(db), database.NewTxManager(db), Options{Policy: policy}, logger.NewNop())
	return uc, db
}

func post(typ model.TransactionType, vendorID, amount string) *dto.PostTransactionInput {
	return &dto.PostTransactionInput{
		VendorID:    vendorID,
		Type:        typ,
		Amount:      decimal.RequireFromString(amount),
		Description: string(typ),
	}
}

func TestPostTransaction_DepositAndWithdrawal(t *testing.T) {
	uc, db := newUseCase(t, ledger.DefaultPolicy)
	vendorID := testutil.SeedVendor(t, db, "10000")
	ctx := testutil.AdminContext()

	dep, err := uc.PostTransaction(ctx, post(model.TransactionDeposit, vendorID, "5000"))
	require.NoError(t, err)
	assert.True(t, dep.BalanceBefore.Equal(decimal.NewFromInt(10000)))
	assert.True(t, dep.BalanceAfter.Equal(decimal.NewFromInt(15000)))
	assert.Equal(t, int64(1), dep.Seq)
	require.NotNil(t, dep.CreatedBy)
	assert.Equal(t, "admin-1", *dep.CreatedBy)
	require.NotNil(t, dep.ReferenceType)
	assert.Equal(t, ledger.ReferenceManual, *dep.ReferenceType)

	wd, err := uc.PostTransaction(ctx, post(model.TransactionWithdrawal, vendorID, "2500.50"))
	require.NoError(t, err)
	assert.True(t, wd.BalanceBefore.Equal(dep.BalanceAfter))
	assert.Equal(t, "12499.5", wd.BalanceAfter.String())

	bal, err := uc.GetBalance(ctx, vendorID)
	require.NoError(t, err)
	assert.Equal(t, "12499.5", bal.CapitalBalance.String())
	assert.Equal(t, int64(2), bal.Version)
}

func TestPostTransaction_Rejections(t *testing.T) {
	uc, db := newUseCase(t, ledger.DefaultPolicy)
	vendorID := testutil.SeedVendor(t, db, "100")
	ctx := testutil.AdminContext()

	tests := []struct {
		name  string
		input *dto.PostTransactionInput
		want  error
	}{
		{"zero amount", post(model.TransactionDeposit, vendorID, "0"), apperr.ErrInvalidAmount},
		{"negative amount", post(model.TransactionDeposit, vendorID, "-5"), apperr.ErrInvalidAmount},
		{"over limit", post(model.TransactionDeposit, vendorID, "1000000001"), apperr.ErrInvalidAmount},
		{"below storage scale", post(model.TransactionDeposit, vendorID, "0.00001"), apperr.ErrInvalidAmount},
		{"fraction past scale", post(model.TransactionDeposit, vendorID, "10.00031"), apperr.ErrInvalidAmount},
		{"unknown type", post("REFUND", vendorID, "5"), apperr.ErrInvalidTransactionType},
		{"missing vendor", post(model.TransactionDeposit, "missing", "5"), apperr.ErrVendorNotFound},
		{"overdraw", post(model.TransactionWithdrawal, vendorID, "100.01"), apperr.ErrInsufficientCapital},
		{"purchase overdraw", post(model.TransactionPurchase, vendorID, "500"), apperr.ErrInsufficientCapital},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.PostTransaction(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// nothing above may have touched the balance
	bal, err := uc.GetBalance(ctx, vendorID)
	require.NoError(t, err)
	assert.True(t, bal.CapitalBalance.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, int64(0), bal.Version)
}

func TestPostTransaction_RequiresRole(t *testing.T) {
	uc, db := newUseCase(t, ledger.DefaultPolicy)
	vendorID := testutil.SeedVendor(t, db, "100")

	_, err := uc.PostTransaction(testutil.VendorContext(vendorID), post(model.TransactionDeposit, vendorID, "10"))
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = uc.PostTransaction(auth.WithUser(context.Background(), auth.SystemUser), post(model.TransactionDeposit, vendorID, "10"))
	assert.NoError(t, err)
}

func TestPostTransaction_SupplierPaymentMayGoNegative(t *testing.T) {
	uc, db := newUseCase(t, ledger.DefaultPolicy)
	vendorID := testutil.SeedVendor(t, db, "100")
	ctx := testutil.AdminContext()

	in := post(model.TransactionPaymentToSupplier, vendorID, "150")
	_, err := uc.PostTransaction(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrInsufficientCapital)

	in.AllowNegative = true
	tx, err := uc.PostTransaction(ctx, in)
	require.NoError(t, err)
	assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(-50)))

	// the flag only applies to supplier payments
	wd := post(model.TransactionWithdrawal, vendorID, "1")
	wd.AllowNegative = true
	_, err = uc.PostTransaction(ctx, wd)
	assert.ErrorIs(t, err, apperr.ErrInsufficientCapital)
}

func TestPostTransaction_NegativeAllowedWhenNotEnforced(t *testing.T) {
	policy := ledger.DefaultPolicy
	policy.EnforceNonNegative = false
	uc, db := newUseCase(t, policy)
	vendorID := testutil.SeedVendor(t, db, "100")

	tx, err := uc.PostTransaction(testutil.AdminContext(), post(model.TransactionWithdrawal, vendorID, "300"))
	require.NoError(t, err)
	assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(-200)))
}

func TestPostTransaction_Concurrent(t *testing.T) {
	uc, db := newUseCase(t, ledger.DefaultPolicy)
	vendorID := testutil.SeedVendor(t, db, "1000")
	ctx := testutil.AdminContext()

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := uc.PostTransaction(ctx, post(model.TransactionDeposit, vendorID, "10"))
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := uc.PostTransaction(ctx, post(model.TransactionWithdrawal, vendorID, "5"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	bal, err := uc.GetBalance(ctx, vendorID)
	require.NoError(t, err)
	assert.True(t, bal.CapitalBalance.Equal(decimal.NewFromInt(1100)), bal.CapitalBalance.String())
	assert.Equal(t, int64(40), bal.Version)

	report, err := uc.VerifyLog(ctx, vendorID)
	require.NoError(t, err)
	assert.True(t, report.Consistent, report.Issues)
	assert.Equal(t, 40, report.TransactionCount)
}

// flakyRepo loses the optimistic race a fixed number of times.
type flakyRepo struct {
	ledger.Repository
	failures int
	calls    int
}

func (r *flakyRepo) UpdateBalance(ctx context.Context, vendorID string, balance decimal.Decimal, from, to int64, now time.Time) error {
	r.calls++
	if r.failures > 0 {
		r.failures--
		return apperr.ErrConcurrentUpdate
	}
	return r.Repository.UpdateBalance(ctx, vendorID, balance, from, to, now)
}

func TestRunAtomic_RetriesConcurrentUpdate(t *testing.T) {
	db := testutil.NewDB(t)
	vendorID := testutil.SeedVendor(t, db, "100")
	repo := &flakyRepo{Repository: repository.NewPGRepository(db), failures: 2}
	uc := NewLedgerUseCase(repo, database.NewTxManager(db), Options{Policy: ledger.DefaultPolicy}, logger.NewNop())

	tx, err := uc.PostTransaction(testutil.AdminContext(), post(model.TransactionDeposit, vendorID, "1"))
	require.NoError(t, err)
	assert.Equal(t, 3, repo.calls)
	assert.Equal(t, int64(1), tx.Seq)

	repo.failures = 10
	_, err = uc.PostTransaction(testutil.AdminContext(), post(model.TransactionDeposit, vendorID, "1"))
	assert.ErrorIs(t, err, apperr.ErrConcurrentUpdate)
}

func TestRunAtomic_HeldVendorLockIsRetryable(t *testing.T) {
	db := testutil.NewDB(t)
	vendorID := testutil.SeedVendor(t, db, "100")
	store := cache.NewMemoryStore()
	uc := NewLedgerUseCase(repository.NewPGRepository(db), database.NewTxManager(db), Options{Locker: store, Store: store, Policy: ledger.DefaultPolicy}, logger.NewNop())
	ctx := testutil.AdminContext()

	// another instance is posting for the same vendor
	ok, err := store.AcquireLock(ctx, ledger.LockKey(vendorID), "other-instance", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = uc.PostTransaction(ctx, post(model.TransactionDeposit, vendorID, "1"))
	assert.ErrorIs(t, err, apperr.ErrConcurrentUpdate)
	assert.True(t, apperr.IsRetryable(err))
	st, _ := status.FromError(apperr.ToStatus(err, "en"))
	assert.Equal(t, codes.Aborted, st.Code())

	require.NoError(t, store.ReleaseLock(ctx, ledger.LockKey(vendorID), "other-instance"))
	_, err = uc.PostTransaction(ctx, post(model.TransactionDeposit, vendorID, "1"))
	assert.NoError(t, err)
}

func TestRunAtomic_RollsBackEverything(t *testing.T) {
	uc, db := newUseCase(t, ledger.DefaultPolicy)
	vendorID := testutil.SeedVendor(t, db, "100")
	ctx := testutil.AdminContext()

	err := uc.RunAtomic(ctx, vendorID, func(ctx context.Context) error {
		if _, err := uc.Post(ctx, post(model.TransactionDeposit, vendorID, "50")); err != nil {
			return err
		}
		_, err := uc.Post(ctx, post(model.TransactionWithdrawal, vendorID, "1000"))
		return err
	})
	assert.ErrorIs(t, err, apperr.ErrInsufficientCapital)

	bal, err := uc.GetBalance(ctx, vendorID)
	require.NoError(t, err)
	assert.True(t, bal.CapitalBalance.Equal(decimal.NewFromInt(100)))

	items, total, err := uc.ListTransactions(ctx, &dto.TransactionFilters{VendorID: vendorID})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
}

func TestListTransactions_FiltersAndOrder(t *testing.T) {
	uc, db := newUseCase(t, ledger.DefaultPolicy)
	vendorID := testutil.SeedVendor(t, db, "1000")
	ctx := testutil.AdminContext()

	for _, p := range []*dto.PostTransactionInput{
		post(model.TransactionDeposit, vendorID, "10"),
		post(model.TransactionPurchase, vendorID, "20"),
		post(model.TransactionDeposit, vendorID, "30"),
	} {
		_, err := uc.PostTransaction(ctx, p)
		require.NoError(t, err)
	}

	items, total, err := uc.ListTransactions(ctx, &dto.TransactionFilters{VendorID: vendorID, Type: model.TransactionDeposit})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, int64(3), items[0].Seq)
	assert.Equal(t, int64(1), items[1].Seq)

	items, total, err = uc.ListTransactions(ctx, &dto.TransactionFilters{VendorID: vendorID, Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].Seq)

	_, _, err = uc.ListTransactions(ctx, &dto.TransactionFilters{VendorID: vendorID, Type: "BOGUS"})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransactionType)
}

func TestSearchTransactions_FallsBackToDatabase(t *testing.T) {
	uc, db := newUseCase(t, ledger.DefaultPolicy)
	vendorID := testutil.SeedVendor(t, db, "1000")
	ctx := testutil.AdminContext()

	in := post(model.TransactionDeposit, vendorID, "10")
	in.Description = "Top-up from Budi"
	_, err := uc.PostTransaction(ctx, in)
	require.NoError(t, err)
	_, err = uc.PostTransaction(ctx, post(model.TransactionDeposit, vendorID, "10"))
	require.NoError(t, err)

	items, err := uc.SearchTransactions(ctx, vendorID, "budi", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Top-up from Budi", items[0].Description)
}

func TestVerifyLogAndRebuild(t *testing.T) {
	uc, db := newUseCase(t, ledger.DefaultPolicy)
	vendorID := testutil.SeedVendor(t, db, "500")
	ctx := testutil.AdminContext()

	_, err := uc.PostTransaction(ctx, post(model.TransactionDeposit, vendorID, "100"))
	require.NoError(t, err)
	_, err = uc.PostTransaction(ctx, post(model.TransactionPurchase, vendorID, "40"))
	require.NoError(t, err)

	report, err := uc.VerifyLog(ctx, vendorID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.True(t, report.DerivedBalance.Equal(decimal.NewFromInt(560)))

	// corrupt the cached balance out of band
	_, err = db.Exec(db.Rebind(`UPDATE vendors SET capital_balance = ? WHERE id = ?`), "999", vendorID)
	require.NoError(t, err)

	report, err = uc.VerifyLog(ctx, vendorID)
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	assert.NotEmpty(t, report.Issues)

	rebuilt, err := uc.RebuildBalance(ctx, vendorID)
	require.NoError(t, err)
	assert.True(t, rebuilt.Changed)
	assert.True(t, rebuilt.RebuiltBalance.Equal(decimal.NewFromInt(560)))
	assert.Equal(t, 2, rebuilt.TransactionCount)

	report, err = uc.VerifyLog(ctx, vendorID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)

	again, err := uc.RebuildBalance(ctx, vendorID)
	require.NoError(t, err)
	assert.False(t, again.Changed)
}

func TestPost_LogIsAppendOnly(t *testing.T) {
	uc, db := newUseCase(t, ledger.DefaultPolicy)
	vendorID := testutil.SeedVendor(t, db, "100")
	ctx := testutil.AdminContext()

	first, err := uc.PostTransaction(ctx, post(model.TransactionDeposit, vendorID, "10"))
	require.NoError(t, err)
	_, err = uc.PostTransaction(ctx, post(model.TransactionWithdrawal, vendorID, "5"))
	require.NoError(t, err)

	items, _, err := uc.ListTransactions(ctx, &dto.TransactionFilters{VendorID: vendorID})
	require.NoError(t, err)
	require.Len(t, items, 2)
	stored := items[1]
	assert.Equal(t, first.ID, stored.ID)
	assert.True(t, first.BalanceBefore.Equal(stored.BalanceBefore))
	assert.True(t, first.BalanceAfter.Equal(stored.BalanceAfter))
	assert.True(t, first.Amount.Equal(stored.Amount))
}
