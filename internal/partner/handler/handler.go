package handler

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/auth"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/partner"
	"github.com/fekuna/omnipos-capital-service/internal/partner/dto"
	"github.com/fekuna/omnipos-capital-service/pkg/grpcjson"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.capital.v1.PartnerService"

type GetPartnerRequest struct {
	ID string `json:"id"`
}

type VendorRequest struct {
	VendorID string `json:"vendor_id"`
}

type PartnerList struct {
	Partners []model.Partner `json:"partners"`
}

type PartnerHandler struct {
	uc     partner.UseCase
	logger logger.ZapLogger
}

func NewPartnerHandler(uc partner.UseCase, log logger.ZapLogger) *PartnerHandler {
	return &PartnerHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *PartnerHandler) Register(s grpc.ServiceRegistrar) {
	grpcjson.Register(s, ServiceName, h,
		grpcjson.Method(ServiceName, "AdmitPartner", h.AdmitPartner),
		grpcjson.Method(ServiceName, "GetPartner", h.GetPartner),
		grpcjson.Method(ServiceName, "ListPartners", h.ListPartners),
		grpcjson.Method(ServiceName, "RecomputeEquity", h.RecomputeEquity),
	)
}

func (h *PartnerHandler) AdmitPartner(ctx context.Context, req *dto.AdmitPartnerInput) (*dto.AdmitPartnerResult, error) {
	req.VendorID = auth.ResolveVendorID(ctx, req.VendorID)
	return h.uc.AdmitPartner(ctx, req)
}

func (h *PartnerHandler) GetPartner(ctx context.Context, req *GetPartnerRequest) (*model.Partner, error) {
	p, err := h.uc.GetPartner(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireVendorAccess(ctx, p.VendorID); err != nil {
		return nil, err
	}
	return p, nil
}

func (h *PartnerHandler) ListPartners(ctx context.Context, req *VendorRequest) (*PartnerList, error) {
	id := auth.ResolveVendorID(ctx, req.VendorID)
	if err := auth.RequireVendorAccess(ctx, id); err != nil {
		return nil, err
	}
	partners, err := h.uc.ListPartners(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PartnerList{Partners: partners}, nil
}

func (h *PartnerHandler) RecomputeEquity(ctx context.Context, req *VendorRequest) (*dto.EquitySummary, error) {
	return h.uc.RecomputeEquity(ctx, auth.ResolveVendorID(ctx, req.VendorID))
}
