package usecase

import (
	"testing"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/fekuna/omnipos-capital-service/internal/ledger"
	ledgerrepo "github.com/fekuna/omnipos-capital-service/internal/ledger/repository"
	ledgeruc "github.com/fekuna/omnipos-capital-service/internal/ledger/usecase"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/payable"
	"github.com/fekuna/omnipos-capital-service/internal/payable/dto"
	"github.com/fekuna/omnipos-capital-service/internal/payable/repository"
	"github.com/fekuna/omnipos-capital-service/internal/testutil"
	"github.com/fekuna/omnipos-capital-service/pkg/database"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUseCase(t *testing.T) (payable.UseCase, ledger.UseCase, *sqlx.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	tx := database.NewTxManager(db)
	luc := ledgeruc.NewLedgerUseCase(ledgerrepo.NewPGRepository(db), tx, ledgeruc.Options{Policy: ledger.DefaultPolicy}, logger.NewNop())
	return NewPayableUseCase(repository.NewPGRepository(db), luc, tx, logger.NewNop()), luc, db
}

func accrue(vendorID, supplierID, productID, orderID string, qty int64, cost string) *dto.AccrueInput {
	return &dto.AccrueInput{
		VendorID:   vendorID,
		SupplierID: supplierID,
		ProductID:  productID,
		OrderID:    orderID,
		Quantity:   qty,
		UnitCost:   decimal.RequireFromString(cost),
	}
}

func TestAccrue_NoCapitalImpact(t *testing.T) {
	uc, luc, db := newUseCase(t)
	vendorID := testutil.SeedVendor(t, db, "1000")
	productID := testutil.SeedProduct(t, db, vendorID, "CONSIGNMENT", "100", 10)
	ctx := testutil.AdminContext()

	p, err := uc.Accrue(ctx, accrue(vendorID, "sup-a", productID, "ord-1", 5, "100"))
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, p.Status)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(500)))

	total, err := uc.PendingTotal(ctx, vendorID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(500)))

	bal, err := luc.GetBalance(ctx, vendorID)
	require.NoError(t, err)
	assert.True(t, bal.CapitalBalance.Equal(decimal.NewFromInt(1000)))

	_, err = uc.Accrue(ctx, accrue(vendorID, "sup-a", productID, "ord-1", 0, "100"))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestSettleSupplier(t *testing.T) {
	uc, luc, db := newUseCase(t)
	vendorID := testutil.SeedVendor(t, db, "100")
	productID := testutil.SeedProduct(t, db, vendorID, "CONSIGNMENT", "100", 10)
	ctx := testutil.AdminContext()

	_, err := uc.Accrue(ctx, accrue(vendorID, "sup-a", productID, "ord-1", 5, "100"))
	require.NoError(t, err)
	_, err = uc.Accrue(ctx, accrue(vendorID, "sup-a", productID, "ord-2", 3, "100"))
	require.NoError(t, err)
	_, err = uc.Accrue(ctx, accrue(vendorID, "sup-b", productID, "ord-2", 1, "40"))
	require.NoError(t, err)

	bySupplier, err := uc.PendingBySupplier(ctx, vendorID)
	require.NoError(t, err)
	require.Len(t, bySupplier, 2)
	assert.Equal(t, "sup-a", bySupplier[0].SupplierID)
	assert.Equal(t, 2, bySupplier[0].Count)
	assert.True(t, bySupplier[0].Total.Equal(decimal.NewFromInt(800)))

	// 800 owed against a balance of 100
	_, err = uc.SettleSupplier(ctx, &dto.SettleInput{VendorID: vendorID, SupplierID: "sup-a"})
	assert.ErrorIs(t, err, apperr.ErrInsufficientCapital)

	pending, _, err := uc.ListPayments(ctx, &dto.PaymentFilters{VendorID: vendorID, Status: model.PaymentPending})
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	res, err := uc.SettleSupplier(ctx, &dto.SettleInput{VendorID: vendorID, SupplierID: "sup-a", AllowNegative: true})
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(800)))
	assert.Equal(t, model.TransactionPaymentToSupplier, res.Transaction.Type)
	assert.True(t, res.Transaction.BalanceAfter.Equal(decimal.NewFromInt(-700)))
	require.Len(t, res.Payments, 2)
	for _, p := range res.Payments {
		assert.Equal(t, model.PaymentPaid, p.Status)
		assert.Equal(t, res.Transaction.ID, *p.CapitalTransactionID)
	}

	paid, total, err := uc.ListPayments(ctx, &dto.PaymentFilters{VendorID: vendorID, Status: model.PaymentPaid})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, p := range paid {
		require.NotNil(t, p.PaidAt)
		assert.Equal(t, res.Transaction.ID, *p.CapitalTransactionID)
	}

	remaining, err := uc.PendingTotal(ctx, vendorID)
	require.NoError(t, err)
	assert.True(t, remaining.Equal(decimal.NewFromInt(40)))

	bal, err := luc.GetBalance(ctx, vendorID)
	require.NoError(t, err)
	assert.True(t, bal.CapitalBalance.Equal(decimal.NewFromInt(-700)))

	_, err = uc.SettleSupplier(ctx, &dto.SettleInput{VendorID: vendorID, SupplierID: "sup-a"})
	assert.ErrorIs(t, err, apperr.ErrNoPendingPayables)
}

func TestSettleSupplier_ZeroCostClosesWithoutPosting(t *testing.T) {
	uc, luc, db := newUseCase(t)
	vendorID := testutil.SeedVendor(t, db, "100")
	productID := testutil.SeedProduct(t, db, vendorID, "CONSIGNMENT", "0", 10)
	ctx := testutil.AdminContext()

	_, err := uc.Accrue(ctx, accrue(vendorID, "sup-free", productID, "ord-1", 2, "0"))
	require.NoError(t, err)

	res, err := uc.SettleSupplier(ctx, &dto.SettleInput{VendorID: vendorID, SupplierID: "sup-free"})
	require.NoError(t, err)
	assert.True(t, res.Amount.IsZero())
	assert.Nil(t, res.Transaction)
	require.Len(t, res.Payments, 1)
	assert.Equal(t, model.PaymentPaid, res.Payments[0].Status)
	assert.Nil(t, res.Payments[0].CapitalTransactionID)

	_, err = uc.SettleSupplier(ctx, &dto.SettleInput{VendorID: vendorID, SupplierID: "sup-free"})
	assert.ErrorIs(t, err, apperr.ErrNoPendingPayables)

	bal, err := luc.GetBalance(ctx, vendorID)
	require.NoError(t, err)
	assert.True(t, bal.CapitalBalance.Equal(decimal.NewFromInt(100)))
	assert.Zero(t, bal.Version)
}

func TestSettleSupplier_RequiresRole(t *testing.T) {
	uc, _, db := newUseCase(t)
	vendorID := testutil.SeedVendor(t, db, "100")

	_, err := uc.SettleSupplier(testutil.VendorContext(vendorID), &dto.SettleInput{VendorID: vendorID, SupplierID: "sup-a"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
