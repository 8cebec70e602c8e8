package handler

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/auth"
	"github.com/fekuna/omnipos-capital-service/internal/ledger"
	"github.com/fekuna/omnipos-capital-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/pkg/grpcjson"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.capital.v1.LedgerService"

type VendorRequest struct {
	VendorID string `json:"vendor_id"`
}

type SearchRequest struct {
	VendorID string `json:"vendor_id"`
	Query    string `json:"query"`
	Limit    int    `json:"limit"`
}

type TransactionList struct {
	Transactions []model.CapitalTransaction `json:"transactions"`
	Total        int                        `json:"total"`
}

type LedgerHandler struct {
	uc     ledger.UseCase
	logger logger.ZapLogger
}

func NewLedgerHandler(uc ledger.UseCase, log logger.ZapLogger) *LedgerHandler {
	return &LedgerHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *LedgerHandler) Register(s grpc.ServiceRegistrar) {
	grpcjson.Register(s, ServiceName, h,
		grpcjson.Method(ServiceName, "PostTransaction", h.PostTransaction),
		grpcjson.Method(ServiceName, "GetBalance", h.GetBalance),
		grpcjson.Method(ServiceName, "ListTransactions", h.ListTransactions),
		grpcjson.Method(ServiceName, "SearchTransactions", h.SearchTransactions),
		grpcjson.Method(ServiceName, "VerifyLog", h.VerifyLog),
		grpcjson.Method(ServiceName, "RebuildBalance", h.RebuildBalance),
	)
}

func (h *LedgerHandler) PostTransaction(ctx context.Context, req *dto.PostTransactionInput) (*model.CapitalTransaction, error) {
	req.VendorID = auth.ResolveVendorID(ctx, req.VendorID)
	return h.uc.PostTransaction(ctx, req)
}

func (h *LedgerHandler) GetBalance(ctx context.Context, req *VendorRequest) (*dto.Balance, error) {
	id := auth.ResolveVendorID(ctx, req.VendorID)
	if err := auth.RequireVendorAccess(ctx, id); err != nil {
		return nil, err
	}
	return h.uc.GetBalance(ctx, id)
}

func (h *LedgerHandler) ListTransactions(ctx context.Context, req *dto.TransactionFilters) (*TransactionList, error) {
	req.VendorID = auth.ResolveVendorID(ctx, req.VendorID)
	if err := auth.RequireVendorAccess(ctx, req.VendorID); err != nil {
		return nil, err
	}
	items, total, err := h.uc.ListTransactions(ctx, req)
	if err != nil {
		return nil, err
	}
	return &TransactionList{Transactions: items, Total: total}, nil
}

func (h *LedgerHandler) SearchTransactions(ctx context.Context, req *SearchRequest) (*TransactionList, error) {
	id := auth.ResolveVendorID(ctx, req.VendorID)
	if err := auth.RequireVendorAccess(ctx, id); err != nil {
		return nil, err
	}
	items, err := h.uc.SearchTransactions(ctx, id, req.Query, req.Limit)
	if err != nil {
		return nil, err
	}
	return &TransactionList{Transactions: items, Total: len(items)}, nil
}

func (h *LedgerHandler) VerifyLog(ctx context.Context, req *VendorRequest) (*dto.LogVerification, error) {
	id := auth.ResolveVendorID(ctx, req.VendorID)
	if err := auth.RequireVendorAccess(ctx, id); err != nil {
		return nil, err
	}
	return h.uc.VerifyLog(ctx, id)
}

func (h *LedgerHandler) RebuildBalance(ctx context.Context, req *VendorRequest) (*dto.RebuildResult, error) {
	return h.uc.RebuildBalance(ctx, auth.ResolveVendorID(ctx, req.VendorID))
}
