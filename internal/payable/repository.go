package payable

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/payable/dto"
)

type Repository interface {
	Create(ctx context.Context, p *model.SupplierPayment) error
	ListPending(ctx context.Context, vendorID, supplierID string) ([]model.SupplierPayment, error)
	MarkPaid(ctx context.Context, ids []string, transactionID *string, paidAt time.Time) error
	PendingTotals(ctx context.Context, vendorID string) ([]dto.SupplierTotal, error)
	List(ctx context.Context, filters *dto.PaymentFilters) ([]model.SupplierPayment, int, error)
}
