package vendor

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/merchant/dto"
	"github.com/fekuna/omnipos-capital-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, v *model.Vendor) error
	FindByID(ctx context.Context, id string) (*model.Vendor, error)
	Activity(ctx context.Context, id string) (*dto.Activity, error)

	// Delete removes the vendor with its products and applied-order marks.
	// Callers check Activity first.
	Delete(ctx context.Context, id string) error
}
