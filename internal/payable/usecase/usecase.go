package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/fekuna/omnipos-capital-service/internal/auth"
	"github.com/fekuna/omnipos-capital-service/internal/ledger"
	ledgerdto "github.com/fekuna/omnipos-capital-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/payable"
	"github.com/fekuna/omnipos-capital-service/internal/payable/dto"
	"github.com/fekuna/omnipos-capital-service/pkg/database"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"github.com/fekuna/omnipos-capital-service/pkg/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type payableUseCase struct {
	repo   payable.Repository
	ledger ledger.UseCase
	tx     *database.TxManager
	logger logger.ZapLogger
}

func NewPayableUseCase(repo payable.Repository, ledgerUC ledger.UseCase, tx *database.TxManager, log logger.ZapLogger) payable.UseCase {
	return &payableUseCase{
		repo:   repo,
		ledger: ledgerUC,
		tx:     tx,
		logger: log,
	}
}

func (uc *payableUseCase) Accrue(ctx context.Context, input *dto.AccrueInput) (*model.SupplierPayment, error) {
	if err := validation.Struct(input); err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, err)
	}
	if input.UnitCost.IsNegative() {
		return nil, apperr.Wrapf(apperr.ErrInvalidAmount, "unit cost %s must not be negative", input.UnitCost)
	}

	p := &model.SupplierPayment{
		ID:         uuid.New().String(),
		VendorID:   input.VendorID,
		SupplierID: input.SupplierID,
		ProductID:  input.ProductID,
		OrderID:    input.OrderID,
		Quantity:   input.Quantity,
		UnitCost:   input.UnitCost,
		Amount:     input.UnitCost.Mul(decimal.NewFromInt(input.Quantity)),
		Status:     model.PaymentPending,
		CreatedAt:  time.Now().UTC(),
	}

	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		return uc.repo.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Debug("supplier payable accrued",
		zap.String("vendor_id", p.VendorID),
		zap.String("supplier_id", p.SupplierID),
		zap.String("order_id", p.OrderID),
		zap.String("amount", p.Amount.String()),
	)
	return p, nil
}

func (uc *payableUseCase) SettleSupplier(ctx context.Context, input *dto.SettleInput) (*dto.SettleResult, error) {
	if err := auth.RequireRole(ctx, auth.RoleAdmin, auth.RoleSystem); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, err)
	}

	var result *dto.SettleResult
	err := uc.ledger.RunAtomic(ctx, input.VendorID, func(ctx context.Context) error {
		pending, err := uc.repo.ListPending(ctx, input.VendorID, input.SupplierID)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return apperr.Wrapf(apperr.ErrNoPendingPayables, "supplier %s", input.SupplierID)
		}

		total := decimal.Zero
		ids := make([]string, 0, len(pending))
		for _, p := range pending {
			total = total.Add(p.Amount)
			ids = append(ids, p.ID)
		}

		// goods consigned at zero cost leave nothing to pay, only rows to close
		var (
			t      *model.CapitalTransaction
			txID   *string
			paidAt = time.Now().UTC()
		)
		if total.IsPositive() {
			t, err = uc.ledger.Post(ctx, &ledgerdto.PostTransactionInput{
				VendorID:      input.VendorID,
				Type:          model.TransactionPaymentToSupplier,
				Amount:        total,
				Description:   fmt.Sprintf("Settlement of %d consignment sales to supplier %s", len(pending), input.SupplierID),
				ReferenceType: ledger.ReferenceSupplierSettlement,
				ReferenceID:   input.SupplierID,
				AllowNegative: input.AllowNegative,
			})
			if err != nil {
				return err
			}
			txID = &t.ID
			paidAt = t.CreatedAt
		}

		if err := uc.repo.MarkPaid(ctx, ids, txID, paidAt); err != nil {
			return err
		}
		for i := range pending {
			pending[i].Status = model.PaymentPaid
			pending[i].CapitalTransactionID = txID
			pending[i].PaidAt = &paidAt
		}

		result = &dto.SettleResult{
			SupplierID:  input.SupplierID,
			Amount:      total,
			Payments:    pending,
			Transaction: t,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("supplier settled",
		zap.String("vendor_id", input.VendorID),
		zap.String("supplier_id", input.SupplierID),
		zap.Int("payments", len(result.Payments)),
		zap.String("amount", result.Amount.String()),
	)
	return result, nil
}

func (uc *payableUseCase) PendingTotal(ctx context.Context, vendorID string) (decimal.Decimal, error) {
	totals, err := uc.repo.PendingTotals(ctx, vendorID)
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t.Total)
	}
	return sum, nil
}

func (uc *payableUseCase) PendingBySupplier(ctx context.Context, vendorID string) ([]dto.SupplierTotal, error) {
	return uc.repo.PendingTotals(ctx, vendorID)
}

func (uc *payableUseCase) ListPayments(ctx context.Context, filters *dto.PaymentFilters) ([]model.SupplierPayment, int, error) {
	return uc.repo.List(ctx, filters)
}
