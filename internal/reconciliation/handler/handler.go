package handler

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/auth"
	"github.com/fekuna/omnipos-capital-service/internal/reconciliation"
	"github.com/fekuna/omnipos-capital-service/internal/reconciliation/dto"
	"github.com/fekuna/omnipos-capital-service/pkg/grpcjson"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.capital.v1.ReconciliationService"

type ReportRequest struct {
	VendorID string `json:"vendor_id"`
}

type ReconciliationHandler struct {
	uc     reconciliation.UseCase
	logger logger.ZapLogger
}

func NewReconciliationHandler(uc reconciliation.UseCase, log logger.ZapLogger) *ReconciliationHandler {
	return &ReconciliationHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ReconciliationHandler) Register(s grpc.ServiceRegistrar) {
	grpcjson.Register(s, ServiceName, h,
		grpcjson.Method(ServiceName, "GetReconciliationReport", h.GetReconciliationReport),
	)
}

func (h *ReconciliationHandler) GetReconciliationReport(ctx context.Context, req *ReportRequest) (*dto.Report, error) {
	return h.uc.GetReconciliationReport(ctx, auth.ResolveVendorID(ctx, req.VendorID))
}
