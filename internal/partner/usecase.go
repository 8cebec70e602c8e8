package partner

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/partner/dto"
)

type UseCase interface {
	// AdmitPartner records the partner, posts the DEPOSIT and provisions the
	// optional account as one unit; nothing persists if any step fails.
	AdmitPartner(ctx context.Context, input *dto.AdmitPartnerInput) (*dto.AdmitPartnerResult, error)
	GetPartner(ctx context.Context, id string) (*model.Partner, error)
	ListPartners(ctx context.Context, vendorID string) ([]model.Partner, error)
	RecomputeEquity(ctx context.Context, vendorID string) (*dto.EquitySummary, error)
}
