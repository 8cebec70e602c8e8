package partner

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, p *model.Partner) error
	FindByID(ctx context.Context, id string) (*model.Partner, error)
	ListByVendor(ctx context.Context, vendorID string) ([]model.Partner, error)
	UpdateShares(ctx context.Context, partners []model.Partner) error
	SetUserID(ctx context.Context, partnerID, userID string) error
}
