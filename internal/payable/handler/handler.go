package handler

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/auth"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/payable"
	"github.com/fekuna/omnipos-capital-service/internal/payable/dto"
	"github.com/fekuna/omnipos-capital-service/pkg/grpcjson"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.capital.v1.PayableService"

type VendorRequest struct {
	VendorID string `json:"vendor_id"`
}

type PendingSummary struct {
	VendorID   string              `json:"vendor_id"`
	Total      decimal.Decimal     `json:"total"`
	BySupplier []dto.SupplierTotal `json:"by_supplier"`
}

type PaymentList struct {
	Payments []model.SupplierPayment `json:"payments"`
	Total    int                     `json:"total"`
}

type PayableHandler struct {
	uc     payable.UseCase
	logger logger.ZapLogger
}

func NewPayableHandler(uc payable.UseCase, log logger.ZapLogger) *PayableHandler {
	return &PayableHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *PayableHandler) Register(s grpc.ServiceRegistrar) {
	grpcjson.Register(s, ServiceName, h,
		grpcjson.Method(ServiceName, "SettleSupplier", h.SettleSupplier),
		grpcjson.Method(ServiceName, "GetPending", h.GetPending),
		grpcjson.Method(ServiceName, "ListPayments", h.ListPayments),
	)
}

func (h *PayableHandler) SettleSupplier(ctx context.Context, req *dto.SettleInput) (*dto.SettleResult, error) {
	req.VendorID = auth.ResolveVendorID(ctx, req.VendorID)
	return h.uc.SettleSupplier(ctx, req)
}

func (h *PayableHandler) GetPending(ctx context.Context, req *VendorRequest) (*PendingSummary, error) {
	id := auth.ResolveVendorID(ctx, req.VendorID)
	if err := auth.RequireVendorAccess(ctx, id); err != nil {
		return nil, err
	}
	total, err := h.uc.PendingTotal(ctx, id)
	if err != nil {
		return nil, err
	}
	bySupplier, err := h.uc.PendingBySupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PendingSummary{VendorID: id, Total: total, BySupplier: bySupplier}, nil
}

func (h *PayableHandler) ListPayments(ctx context.Context, req *dto.PaymentFilters) (*PaymentList, error) {
	req.VendorID = auth.ResolveVendorID(ctx, req.VendorID)
	if err := auth.RequireVendorAccess(ctx, req.VendorID); err != nil {
		return nil, err
	}
	payments, total, err := h.uc.ListPayments(ctx, req)
	if err != nil {
		return nil, err
	}
	return &PaymentList{Payments: payments, Total: total}, nil
}
