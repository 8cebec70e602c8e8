package handler

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/auth"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/product"
	"github.com/fekuna/omnipos-capital-service/internal/product/dto"
	"github.com/fekuna/omnipos-capital-service/pkg/grpcjson"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.capital.v1.ProductService"

type GetProductRequest struct {
	ID string `json:"id"`
}

type ProductList struct {
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
}

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) Register(s grpc.ServiceRegistrar) {
	grpcjson.Register(s, ServiceName, h,
		grpcjson.Method(ServiceName, "RegisterProduct", h.RegisterProduct),
		grpcjson.Method(ServiceName, "GetProduct", h.GetProduct),
		grpcjson.Method(ServiceName, "ListProducts", h.ListProducts),
		grpcjson.Method(ServiceName, "UpdateProduct", h.UpdateProduct),
		grpcjson.Method(ServiceName, "PurchaseStock", h.PurchaseStock),
		grpcjson.Method(ServiceName, "ReceiveConsignment", h.ReceiveConsignment),
	)
}

func (h *ProductHandler) RegisterProduct(ctx context.Context, req *dto.RegisterProductInput) (*model.Product, error) {
	req.VendorID = auth.ResolveVendorID(ctx, req.VendorID)
	return h.uc.RegisterProduct(ctx, req)
}

func (h *ProductHandler) GetProduct(ctx context.Context, req *GetProductRequest) (*model.Product, error) {
	p, err := h.uc.GetProduct(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireVendorAccess(ctx, p.VendorID); err != nil {
		return nil, err
	}
	return p, nil
}

func (h *ProductHandler) ListProducts(ctx context.Context, req *dto.ProductFilters) (*ProductList, error) {
	req.VendorID = auth.ResolveVendorID(ctx, req.VendorID)
	if err := auth.RequireVendorAccess(ctx, req.VendorID); err != nil {
		return nil, err
	}
	products, total, err := h.uc.ListProducts(ctx, req)
	if err != nil {
		return nil, err
	}
	return &ProductList{Products: products, Total: total}, nil
}

func (h *ProductHandler) UpdateProduct(ctx context.Context, req *dto.UpdateProductInput) (*model.Product, error) {
	return h.uc.UpdateProduct(ctx, req)
}

func (h *ProductHandler) PurchaseStock(ctx context.Context, req *dto.PurchaseStockInput) (*dto.PurchaseResult, error) {
	res, err := h.uc.PurchaseStock(ctx, req)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("stock purchased", zap.String("product_id", res.Product.ID), zap.Int64("quantity", req.Quantity))
	return res, nil
}

func (h *ProductHandler) ReceiveConsignment(ctx context.Context, req *dto.ReceiveConsignmentInput) (*model.Product, error) {
	return h.uc.ReceiveConsignment(ctx, req)
}
