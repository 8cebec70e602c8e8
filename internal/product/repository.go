package product

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	ListByVendor(ctx context.Context, vendorID string) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error

	// Check SKU uniqueness
	IsSKUUnique(ctx context.Context, vendorID, sku, excludeID string) (bool, error)

	// AdjustStock adds delta to the stock and refuses to go below zero.
	AdjustStock(ctx context.Context, id string, delta int64) (*model.Product, error)
}
