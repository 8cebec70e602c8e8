package handler

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/order"
	"github.com/fekuna/omnipos-capital-service/internal/order/dto"
	"github.com/fekuna/omnipos-capital-service/pkg/grpcjson"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.capital.v1.OrderService"

// OrderHandler is the synchronous path for delivered orders; the Kafka
// listener covers the asynchronous one.
type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *OrderHandler) Register(s grpc.ServiceRegistrar) {
	grpcjson.Register(s, ServiceName, h,
		grpcjson.Method(ServiceName, "ApplyDeliveredOrder", h.ApplyDeliveredOrder),
	)
}

func (h *OrderHandler) ApplyDeliveredOrder(ctx context.Context, req *dto.DeliveredOrderInput) (*dto.ApplyResult, error) {
	return h.uc.ApplyDeliveredOrder(ctx, req)
}
