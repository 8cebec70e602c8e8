package usecase

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/fekuna/omnipos-capital-service/internal/auth"
	"github.com/fekuna/omnipos-capital-service/internal/ledger"
	ledgerdto "github.com/fekuna/omnipos-capital-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/order"
	"github.com/fekuna/omnipos-capital-service/internal/order/dto"
	"github.com/fekuna/omnipos-capital-service/internal/payable"
	payabledto "github.com/fekuna/omnipos-capital-service/internal/payable/dto"
	"github.com/fekuna/omnipos-capital-service/internal/product"
	"github.com/fekuna/omnipos-capital-service/internal/valuation"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"github.com/fekuna/omnipos-capital-service/pkg/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type orderUseCase struct {
	repo     order.Repository
	ledger   ledger.UseCase
	products product.UseCase
	payables payable.UseCase
	logger   logger.ZapLogger
}

func NewOrderUseCase(repo order.Repository, ledgerUC ledger.UseCase, products product.UseCase, payables payable.UseCase, log logger.ZapLogger) order.UseCase {
	return &orderUseCase{
		repo:     repo,
		ledger:   ledgerUC,
		products: products,
		payables: payables,
		logger:   log,
	}
}

func (uc *orderUseCase) ApplyDeliveredOrder(ctx context.Context, input *dto.DeliveredOrderInput) (*dto.ApplyResult, error) {
	if err := auth.RequireRole(ctx, auth.RoleAdmin, auth.RoleSystem); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, err)
	}
	for _, line := range input.Items {
		if line.UnitPrice.IsNegative() {
			return nil, apperr.Wrapf(apperr.ErrInvalidAmount, "unit price %s for product %s", line.UnitPrice, line.ProductID)
		}
	}

	// redelivered events stop here without taking the vendor lock
	applied, err := uc.repo.IsApplied(ctx, input.VendorID, input.OrderID)
	if err != nil {
		return nil, err
	}
	if applied {
		return nil, apperr.Wrapf(apperr.ErrAlreadyApplied, "order %s", input.OrderID)
	}

	var result *dto.ApplyResult
	err = uc.ledger.RunAtomic(ctx, input.VendorID, func(ctx context.Context) error {
		if _, err := uc.ledger.GetBalance(ctx, input.VendorID); err != nil {
			return err
		}
		if err := uc.repo.MarkApplied(ctx, input.VendorID, input.OrderID); err != nil {
			return err
		}

		result = &dto.ApplyResult{OrderID: input.OrderID}
		proceeds := decimal.Zero
		for _, line := range input.Items {
			p, err := uc.products.AdjustStock(ctx, line.ProductID, -line.Quantity)
			if err != nil {
				return err
			}
			if p.VendorID != input.VendorID {
				return apperr.Wrapf(apperr.ErrInvalidInput, "product %s does not belong to vendor %s", p.ID, input.VendorID)
			}

			c := valuation.Classify(p)
			if c.CapitalImpacting {
				proceeds = proceeds.Add(line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity)))
				continue
			}

			if p.SupplierID == nil {
				return apperr.Wrapf(apperr.ErrInvalidInput, "consignment product %s has no supplier", p.SKU)
			}
			payment, err := uc.payables.Accrue(ctx, &payabledto.AccrueInput{
				VendorID:   input.VendorID,
				SupplierID: *p.SupplierID,
				ProductID:  p.ID,
				OrderID:    input.OrderID,
				Quantity:   line.Quantity,
				UnitCost:   c.UnitCost,
			})
			if err != nil {
				return err
			}
			result.Payables = append(result.Payables, *payment)
		}

		if proceeds.IsPositive() {
			t, err := uc.ledger.Post(ctx, &ledgerdto.PostTransactionInput{
				VendorID:      input.VendorID,
				Type:          model.TransactionSaleProceeds,
				Amount:        proceeds,
				Description:   fmt.Sprintf("Sale proceeds for order %s", input.OrderID),
				ReferenceType: ledger.ReferenceOrder,
				ReferenceID:   input.OrderID,
			})
			if err != nil {
				return err
			}
			result.SaleProceeds = t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("vendor_id", input.VendorID),
		zap.String("order_id", input.OrderID),
		zap.Int("payables", len(result.Payables)),
	}
	if result.SaleProceeds != nil {
		fields = append(fields, zap.String("proceeds", result.SaleProceeds.Amount.String()))
	}
	uc.logger.Info("delivered order applied", fields...)
	return result, nil
}
