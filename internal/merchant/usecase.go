package vendor

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/merchant/dto"
	"github.com/fekuna/omnipos-capital-service/internal/model"
)

type UseCase interface {
	CreateVendor(ctx context.Context, input *dto.CreateVendorInput) (*dto.CreateVendorResult, error)
	GetVendor(ctx context.Context, id string) (*model.Vendor, error)
	DeleteVendor(ctx context.Context, id string) error
}
