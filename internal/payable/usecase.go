package payable

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/payable/dto"
	"github.com/shopspring/decimal"
)

type UseCase interface {
	// Accrue records what a consignment sale owes the supplier. It joins the
	// caller's transaction and never touches the capital balance.
	Accrue(ctx context.Context, input *dto.AccrueInput) (*model.SupplierPayment, error)
	SettleSupplier(ctx context.Context, input *dto.SettleInput) (*dto.SettleResult, error)
	PendingTotal(ctx context.Context, vendorID string) (decimal.Decimal, error)
	PendingBySupplier(ctx context.Context, vendorID string) ([]dto.SupplierTotal, error)
	ListPayments(ctx context.Context, filters *dto.PaymentFilters) ([]model.SupplierPayment, int, error)
}
