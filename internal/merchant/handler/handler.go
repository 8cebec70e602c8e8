package handler

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/auth"
	vendor "github.com/fekuna/omnipos-capital-service/internal/merchant"
	"github.com/fekuna/omnipos-capital-service/internal/merchant/dto"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/pkg/grpcjson"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.capital.v1.VendorService"

type VendorRequest struct {
	VendorID string `json:"vendor_id"`
}

type DeleteVendorResponse struct {
	Deleted bool `json:"deleted"`
}

type VendorHandler struct {
	uc     vendor.UseCase
	logger logger.ZapLogger
}

func NewVendorHandler(uc vendor.UseCase, log logger.ZapLogger) *VendorHandler {
	return &VendorHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *VendorHandler) Register(s grpc.ServiceRegistrar) {
	grpcjson.Register(s, ServiceName, h,
		grpcjson.Method(ServiceName, "CreateVendor", h.CreateVendor),
		grpcjson.Method(ServiceName, "GetVendor", h.GetVendor),
		grpcjson.Method(ServiceName, "DeleteVendor", h.DeleteVendor),
	)
}

func (h *VendorHandler) CreateVendor(ctx context.Context, req *dto.CreateVendorInput) (*dto.CreateVendorResult, error) {
	return h.uc.CreateVendor(ctx, req)
}

func (h *VendorHandler) GetVendor(ctx context.Context, req *VendorRequest) (*model.Vendor, error) {
	return h.uc.GetVendor(ctx, auth.ResolveVendorID(ctx, req.VendorID))
}

func (h *VendorHandler) DeleteVendor(ctx context.Context, req *VendorRequest) (*DeleteVendorResponse, error) {
	if err := h.uc.DeleteVendor(ctx, req.VendorID); err != nil {
		return nil, err
	}
	return &DeleteVendorResponse{Deleted: true}, nil
}
