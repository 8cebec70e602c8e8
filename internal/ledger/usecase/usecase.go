package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/fekuna/omnipos-capital-service/internal/auth"
	"github.com/fekuna/omnipos-capital-service/internal/ledger"
	"github.com/fekuna/omnipos-capital-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/pkg/cache"
	"github.com/fekuna/omnipos-capital-service/pkg/database"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"github.com/fekuna/omnipos-capital-service/pkg/search"
	"github.com/fekuna/omnipos-capital-service/pkg/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ledgerUseCase struct {
	repo   ledger.Repository
	tx     *database.TxManager
	locker cache.Locker
	store  cache.Store
	es     *search.Client
	policy ledger.Policy
	logger logger.ZapLogger
}

type Options struct {
	Locker cache.Locker
	Store  cache.Store
	Search *search.Client
	Policy ledger.Policy
}

func NewLedgerUseCase(repo ledger.Repository, tx *database.TxManager, opts Options, log logger.ZapLogger) ledger.UseCase {
	policy := opts.Policy
	if policy.MaxRetries <= 0 {
		policy.MaxRetries = 1
	}
	return &ledgerUseCase{
		repo:   repo,
		tx:     tx,
		locker: opts.Locker,
		store:  opts.Store,
		es:     opts.Search,
		policy: policy,
		logger: log,
	}
}

// posted collects the rows written inside one RunAtomic call so post-commit
// work only sees committed transactions.
type posted struct {
	mu   sync.Mutex
	rows []*model.CapitalTransaction
}

type postedKey struct{}

func (uc *ledgerUseCase) PostTransaction(ctx context.Context, input *dto.PostTransactionInput) (*model.CapitalTransaction, error) {
	if err := auth.RequireRole(ctx, auth.RoleAdmin, auth.RoleSystem); err != nil {
		return nil, err
	}
	if err := uc.validate(input); err != nil {
		return nil, err
	}
	if input.ReferenceType == "" {
		input.ReferenceType = ledger.ReferenceManual
	}

	var result *model.CapitalTransaction
	err := uc.RunAtomic(ctx, input.VendorID, func(ctx context.Context) error {
		t, err := uc.Post(ctx, input)
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("capital transaction posted",
		zap.String("vendor_id", result.VendorID),
		zap.String("type", string(result.Type)),
		zap.String("amount", result.Amount.String()),
		zap.String("balance_after", result.BalanceAfter.String()),
		zap.Int64("seq", result.Seq),
	)
	return result, nil
}

func (uc *ledgerUseCase) Post(ctx context.Context, input *dto.PostTransactionInput) (*model.CapitalTransaction, error) {
	if err := uc.validate(input); err != nil {
		return nil, err
	}

	var row *model.CapitalTransaction
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		v, err := uc.repo.GetVendor(ctx, input.VendorID)
		if err != nil {
			return err
		}
		if v == nil {
			return apperr.Wrapf(apperr.ErrVendorNotFound, "vendor %s", input.VendorID)
		}

		before := v.CapitalBalance
		after := input.Type.Apply(before, input.Amount)
		if input.Type.Decreases() && after.IsNegative() && uc.rejectsNegative(input) {
			return apperr.Wrapf(apperr.ErrInsufficientCapital,
				"balance %s cannot cover %s of %s", before.StringFixed(2), input.Type, input.Amount.StringFixed(2))
		}

		now := time.Now().UTC()
		row = &model.CapitalTransaction{
			ID:            uuid.New().String(),
			VendorID:      v.ID,
			Seq:           v.BalanceVersion + 1,
			Type:          input.Type,
			Amount:        input.Amount,
			BalanceBefore: before,
			BalanceAfter:  after,
			PartnerID:     input.PartnerID,
			ReferenceType: optional(input.ReferenceType),
			ReferenceID:   optional(input.ReferenceID),
			Description:   input.Description,
			CreatedBy:     auth.UserID(ctx),
			CreatedAt:     now,
		}

		if err := uc.repo.UpdateBalance(ctx, v.ID, after, v.BalanceVersion, row.Seq, now); err != nil {
			return err
		}
		return uc.repo.AppendTransaction(ctx, row)
	})
	if err != nil {
		return nil, err
	}

	if p, ok := ctx.Value(postedKey{}).(*posted); ok {
		p.mu.Lock()
		p.rows = append(p.rows, row)
		p.mu.Unlock()
	}
	return row, nil
}

func (uc *ledgerUseCase) RunAtomic(ctx context.Context, vendorID string, fn func(ctx context.Context) error) error {
	if database.InTx(ctx) {
		return fn(ctx)
	}

	err := cache.WithLock(ctx, uc.locker, ledger.LockKey(vendorID), cache.DefaultLockOptions, func() error {
		var err error
		for attempt := 1; attempt <= uc.policy.MaxRetries; attempt++ {
			p := &posted{}
			err = uc.tx.WithinTx(context.WithValue(ctx, postedKey{}, p), fn)
			if err == nil {
				uc.afterCommit(vendorID, p.rows)
				return nil
			}
			if !apperr.IsRetryable(err) {
				return err
			}

			uc.logger.Warn("concurrent capital update, retrying",
				zap.String("vendor_id", vendorID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt*10+rand.Intn(10)) * time.Millisecond):
			}
		}
		return err
	})
	if errors.Is(err, cache.ErrLockNotAcquired) {
		// another instance holds the vendor; same answer as a lost version race
		return apperr.Wrap(apperr.ErrConcurrentUpdate, err)
	}
	return err
}

func (uc *ledgerUseCase) GetBalance(ctx context.Context, vendorID string) (*dto.Balance, error) {
	v, err := uc.repo.GetVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, apperr.Wrapf(apperr.ErrVendorNotFound, "vendor %s", vendorID)
	}
	return &dto.Balance{
		VendorID:       v.ID,
		InitialCapital: v.InitialCapital,
		CapitalBalance: v.CapitalBalance,
		Version:        v.BalanceVersion,
	}, nil
}

func (uc *ledgerUseCase) ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.CapitalTransaction, int, error) {
	if filters.Type != "" && !filters.Type.Valid() {
		return nil, 0, apperr.Wrapf(apperr.ErrInvalidTransactionType, "type %q", filters.Type)
	}
	return uc.repo.ListTransactions(ctx, filters)
}

func (uc *ledgerUseCase) SearchTransactions(ctx context.Context, vendorID, query string, limit int) ([]model.CapitalTransaction, error) {
	if limit <= 0 {
		limit = 50
	}

	if uc.es != nil {
		q := map[string]interface{}{
			"query": map[string]interface{}{
				"bool": map[string]interface{}{
					"must": []map[string]interface{}{
						{
							"query_string": map[string]interface{}{
								"query":  fmt.Sprintf("*%s*", query),
								"fields": []string{"description^2", "reference_id", "type"},
							},
						},
						{
							"term": map[string]interface{}{
								"vendor_id": vendorID,
							},
						},
					},
				},
			},
			"size": limit,
			"sort": []map[string]interface{}{{"seq": "desc"}},
		}

		res, err := uc.es.Search(ctx, ledger.AuditIndex, q)
		if err == nil {
			items := make([]model.CapitalTransaction, 0, len(res.Hits.Hits))
			for _, hit := range res.Hits.Hits {
				var t model.CapitalTransaction
				if err := json.Unmarshal(hit.Source, &t); err == nil {
					items = append(items, t)
				}
			}
			return items, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	return uc.repo.SearchByDescription(ctx, vendorID, query, limit)
}

func (uc *ledgerUseCase) VerifyLog(ctx context.Context, vendorID string) (*dto.LogVerification, error) {
	v, err := uc.repo.GetVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, apperr.Wrapf(apperr.ErrVendorNotFound, "vendor %s", vendorID)
	}

	log, err := uc.repo.AllTransactions(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	result := &dto.LogVerification{
		VendorID:         vendorID,
		TransactionCount: len(log),
		StoredBalance:    v.CapitalBalance,
	}

	derived := v.InitialCapital
	prevAfter := v.InitialCapital
	for i := range log {
		t := &log[i]
		if !t.Consistent() {
			result.Issues = append(result.Issues, dto.LogIssue{
				Seq: t.Seq, TransactionID: t.ID,
				Problem: fmt.Sprintf("balance_after %s does not follow from %s %s %s", t.BalanceAfter, t.BalanceBefore, t.Type, t.Amount),
			})
		}
		if !t.BalanceBefore.Equal(prevAfter) {
			result.Issues = append(result.Issues, dto.LogIssue{
				Seq: t.Seq, TransactionID: t.ID,
				Problem: fmt.Sprintf("balance_before %s does not match previous balance %s", t.BalanceBefore, prevAfter),
			})
		}
		derived = t.Type.Apply(derived, t.Amount)
		prevAfter = t.BalanceAfter
	}
	result.DerivedBalance = derived

	if len(log) > 0 && !prevAfter.Equal(v.CapitalBalance) {
		last := log[len(log)-1]
		result.Issues = append(result.Issues, dto.LogIssue{
			Seq: last.Seq, TransactionID: last.ID,
			Problem: fmt.Sprintf("latest balance_after %s differs from stored balance %s", prevAfter, v.CapitalBalance),
		})
	}
	if !derived.Equal(v.CapitalBalance) {
		result.Issues = append(result.Issues, dto.LogIssue{
			Problem: fmt.Sprintf("initial capital plus postings is %s, stored balance is %s", derived, v.CapitalBalance),
		})
	}

	result.Consistent = len(result.Issues) == 0
	return result, nil
}

func (uc *ledgerUseCase) RebuildBalance(ctx context.Context, vendorID string) (*dto.RebuildResult, error) {
	if err := auth.RequireRole(ctx, auth.RoleAdmin, auth.RoleSystem); err != nil {
		return nil, err
	}

	var result *dto.RebuildResult
	err := uc.RunAtomic(ctx, vendorID, func(ctx context.Context) error {
		v, err := uc.repo.GetVendor(ctx, vendorID)
		if err != nil {
			return err
		}
		if v == nil {
			return apperr.Wrapf(apperr.ErrVendorNotFound, "vendor %s", vendorID)
		}

		log, err := uc.repo.AllTransactions(ctx, vendorID)
		if err != nil {
			return err
		}

		rebuilt := v.InitialCapital
		for _, t := range log {
			rebuilt = t.Type.Apply(rebuilt, t.Amount)
		}

		result = &dto.RebuildResult{
			VendorID:         vendorID,
			PreviousBalance:  v.CapitalBalance,
			RebuiltBalance:   rebuilt,
			TransactionCount: len(log),
			Changed:          !rebuilt.Equal(v.CapitalBalance),
		}
		if !result.Changed {
			return nil
		}
		return uc.repo.UpdateBalance(ctx, vendorID, rebuilt, v.BalanceVersion, v.BalanceVersion, time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		uc.logger.Warn("capital balance rebuilt from transaction log",
			zap.String("vendor_id", vendorID),
			zap.String("previous", result.PreviousBalance.String()),
			zap.String("rebuilt", result.RebuiltBalance.String()),
		)
		uc.afterCommit(vendorID, nil)
	}
	return result, nil
}

func (uc *ledgerUseCase) validate(input *dto.PostTransactionInput) error {
	if err := validation.Struct(input); err != nil {
		return apperr.Wrap(apperr.ErrInvalidInput, err)
	}
	if !input.Type.Valid() {
		return apperr.Wrapf(apperr.ErrInvalidTransactionType, "type %q", input.Type)
	}
	return ledger.ValidateAmount(input.Amount, uc.policy.MaxAmount)
}

func (uc *ledgerUseCase) rejectsNegative(input *dto.PostTransactionInput) bool {
	if !uc.policy.EnforceNonNegative {
		return false
	}
	if input.Type == model.TransactionPaymentToSupplier && input.AllowNegative {
		return false
	}
	return true
}

func (uc *ledgerUseCase) afterCommit(vendorID string, rows []*model.CapitalTransaction) {
	if uc.store != nil {
		if err := uc.store.Delete(context.Background(), ledger.ReportCacheKey(vendorID)); err != nil {
			uc.logger.Warn("failed to invalidate reconciliation cache", zap.String("vendor_id", vendorID), zap.Error(err))
		}
	}
	if uc.es != nil && len(rows) > 0 {
		go uc.syncToElastic(context.Background(), rows)
	}
}

func (uc *ledgerUseCase) syncToElastic(ctx context.Context, rows []*model.CapitalTransaction) {
	mapping := `{
		"mappings": {
			"properties": {
				"vendor_id": { "type": "keyword" },
				"partner_id": { "type": "keyword" },
				"type": { "type": "keyword" },
				"reference_type": { "type": "keyword" },
				"reference_id": { "type": "keyword" },
				"description": { "type": "text" },
				"seq": { "type": "long" },
				"amount": { "type": "scaled_float", "scaling_factor": 10000 },
				"balance_before": { "type": "scaled_float", "scaling_factor": 10000 },
				"balance_after": { "type": "scaled_float", "scaling_factor": 10000 },
				"created_at": { "type": "date" }
			}
		}
	}`
	_ = uc.es.CreateIndex(ctx, ledger.AuditIndex, mapping)

	for _, row := range rows {
		if err := uc.es.Index(ctx, ledger.AuditIndex, row.ID, row); err != nil {
			uc.logger.Error("failed to index capital transaction", zap.String("id", row.ID), zap.Error(err))
		}
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
