package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/auth"
	"github.com/fekuna/omnipos-capital-service/internal/ledger"
	ledgerdto "github.com/fekuna/omnipos-capital-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/payable"
	"github.com/fekuna/omnipos-capital-service/internal/product"
	"github.com/fekuna/omnipos-capital-service/internal/reconciliation"
	"github.com/fekuna/omnipos-capital-service/internal/reconciliation/dto"
	"github.com/fekuna/omnipos-capital-service/internal/valuation"
	"github.com/fekuna/omnipos-capital-service/pkg/cache"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Options struct {
	// Epsilon is the largest absolute variance still reported as balanced.
	Epsilon decimal.Decimal
	// CacheTTL bounds how long a report is served from the store. Postings
	// and stock changes drop the entry earlier.
	CacheTTL time.Duration
}

var DefaultOptions = Options{
	Epsilon:  decimal.RequireFromString("0.01"),
	CacheTTL: time.Minute,
}

type reconciliationUseCase struct {
	ledgerRepo ledger.Repository
	ledger     ledger.UseCase
	products   product.Repository
	payables   payable.UseCase
	store      cache.Store
	opts       Options
	logger     logger.ZapLogger
	now        func() time.Time
}

// NewReconciliationUseCase accepts a nil store; reports are then always rebuilt.
func NewReconciliationUseCase(
	ledgerRepo ledger.Repository,
	ledgerUC ledger.UseCase,
	products product.Repository,
	payables payable.UseCase,
	store cache.Store,
	opts Options,
	log logger.ZapLogger,
) reconciliation.UseCase {
	if opts.Epsilon.IsNegative() {
		opts.Epsilon = opts.Epsilon.Abs()
	}
	return &reconciliationUseCase{
		ledgerRepo: ledgerRepo,
		ledger:     ledgerUC,
		products:   products,
		payables:   payables,
		store:      store,
		opts:       opts,
		logger:     log,
		now:        time.Now,
	}
}

func (uc *reconciliationUseCase) GetReconciliationReport(ctx context.Context, vendorID string) (*dto.Report, error) {
	if err := auth.RequireVendorAccess(ctx, vendorID); err != nil {
		return nil, err
	}

	cacheKey := ledger.ReportCacheKey(vendorID)
	if uc.store != nil {
		if val, err := uc.store.Get(ctx, cacheKey); err == nil {
			var cached dto.Report
			if err := json.Unmarshal(val, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	report, err := uc.build(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	if uc.store != nil && uc.opts.CacheTTL > 0 {
		if data, err := json.Marshal(report); err == nil {
			if err := uc.store.Set(ctx, cacheKey, data, uc.opts.CacheTTL); err != nil {
				uc.logger.Warn("failed to cache reconciliation report", zap.String("vendor_id", vendorID), zap.Error(err))
			}
		}
	}

	if report.Status != dto.StatusBalanced {
		uc.logger.Info("capital variance detected",
			zap.String("vendor_id", vendorID),
			zap.String("status", string(report.Status)),
			zap.String("variance", report.Variance.String()),
		)
	}
	return report, nil
}

func (uc *reconciliationUseCase) build(ctx context.Context, vendorID string) (*dto.Report, error) {
	// 1. Balances
	balance, err := uc.ledger.GetBalance(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	partnerDeposits, err := uc.ledgerRepo.SumPartnerDeposits(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	// 2. Inventory snapshot
	products, err := uc.products.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	// 3. Log breakdown
	totals, err := uc.ledgerRepo.SummarizeByType(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	verification, err := uc.ledger.VerifyLog(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	// 4. Liabilities
	pending, err := uc.payables.PendingTotal(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	bySupplier, err := uc.payables.PendingBySupplier(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	report := &dto.Report{
		VendorID:                vendorID,
		InitialCapital:          balance.InitialCapital,
		PartnerContributions:    partnerDeposits,
		ContributedCapital:      balance.InitialCapital.Add(partnerDeposits),
		OwnedStockValue:         valuation.OwnedStockValue(products),
		ConsignmentStockValue:   valuation.ConsignmentStockValue(products),
		ActualCapital:           balance.CapitalBalance,
		PendingSupplierPayables: pending,
		PendingBySupplier:       bySupplier,
		Log:                     verification,
		GeneratedAt:             uc.now().UTC(),
	}
	report.ExpectedCapital = report.ContributedCapital.Sub(report.OwnedStockValue)
	report.Variance = report.ActualCapital.Sub(report.ExpectedCapital)
	report.Status = classify(report.Variance, uc.opts.Epsilon)

	report.TransactionSummary, report.NetPostings = summarize(totals)
	report.ProbableCauses = probableCauses(report, totals)
	return report, nil
}

func classify(variance, epsilon decimal.Decimal) dto.Status {
	switch {
	case variance.Abs().LessThanOrEqual(epsilon):
		return dto.StatusBalanced
	case variance.IsPositive():
		return dto.StatusHigherThanExpected
	default:
		return dto.StatusLowerThanExpected
	}
}

// summarize lists every transaction type, including ones with no rows, in
// the model's stable order.
func summarize(totals []ledgerdto.TypeTotal) ([]dto.TypeSummary, decimal.Decimal) {
	byType := make(map[model.TransactionType]ledgerdto.TypeTotal, len(totals))
	for _, t := range totals {
		byType[t.Type] = t
	}

	net := decimal.Zero
	summary := make([]dto.TypeSummary, 0, len(model.TransactionTypes()))
	for _, typ := range model.TransactionTypes() {
		t := byType[typ]
		row := dto.TypeSummary{
			Type:   typ,
			Count:  t.Count,
			Gross:  t.Total,
			Signed: typ.Signed(t.Total),
		}
		net = net.Add(row.Signed)
		summary = append(summary, row)
	}
	return summary, net
}

func total(totals []ledgerdto.TypeTotal, typ model.TransactionType) decimal.Decimal {
	for _, t := range totals {
		if t.Type == typ {
			return t.Total
		}
	}
	return decimal.Zero
}

// probableCauses lists explanations for the variance direction. Causes backed
// by log totals come first; the generic ones follow.
func probableCauses(r *dto.Report, totals []ledgerdto.TypeTotal) []dto.Cause {
	var causes []dto.Cause
	if r.Log != nil && !r.Log.Consistent {
		causes = append(causes, dto.Cause{
			Code:        "log_inconsistent",
			Description: "transaction log does not reproduce the stored balance",
		})
	}

	evidence := func(code, description string, amount decimal.Decimal) {
		if amount.IsPositive() {
			a := amount
			causes = append(causes, dto.Cause{Code: code, Description: description, Amount: &a})
		}
	}

	switch r.Status {
	case dto.StatusHigherThanExpected:
		evidence("sale_profit", "proceeds from sales of owned goods above their cost", total(totals, model.TransactionSaleProceeds))
		evidence("unattributed_deposit", "deposits not attributed to a partner", total(totals, model.TransactionDeposit).Sub(r.PartnerContributions))
		causes = append(causes, dto.Cause{
			Code:        "consignment_receipts",
			Description: "receipts from consignment partners outside the tracked flow",
		})
	case dto.StatusLowerThanExpected:
		evidence("withdrawal", "withdrawals of capital", total(totals, model.TransactionWithdrawal))
		evidence("supplier_payment", "payments to consignment suppliers", total(totals, model.TransactionPaymentToSupplier))
		causes = append(causes,
			dto.Cause{Code: "untracked_purchase", Description: "owned purchases not reflected in stock value"},
			dto.Cause{Code: "unrecorded_history", Description: "historical transactions missing from the log"},
		)
	}
	return causes
}
