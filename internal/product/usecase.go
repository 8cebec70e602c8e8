package product

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/product/dto"
)

type UseCase interface {
	RegisterProduct(ctx context.Context, input *dto.RegisterProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)

	// Stock ops
	PurchaseStock(ctx context.Context, input *dto.PurchaseStockInput) (*dto.PurchaseResult, error)
	ReceiveConsignment(ctx context.Context, input *dto.ReceiveConsignmentInput) (*model.Product, error)
	// AdjustStock joins the caller's transaction. Used when orders ship.
	AdjustStock(ctx context.Context, productID string, delta int64) (*model.Product, error)
}
