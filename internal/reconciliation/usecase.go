package reconciliation

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/reconciliation/dto"
)

type UseCase interface {
	// GetReconciliationReport compares the stored balance with the balance
	// implied by contributed capital and owned stock. It never writes.
	GetReconciliationReport(ctx context.Context, vendorID string) (*dto.Report, error)
}
