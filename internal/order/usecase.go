package order

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/order/dto"
)

type UseCase interface {
	// ApplyDeliveredOrder books a delivered order exactly once: stock leaves,
	// owned lines become SALE_PROCEEDS and consignment lines become payables.
	ApplyDeliveredOrder(ctx context.Context, input *dto.DeliveredOrderInput) (*dto.ApplyResult, error)
}
