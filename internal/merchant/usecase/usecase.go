package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/account"
	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/fekuna/omnipos-capital-service/internal/auth"
	"github.com/fekuna/omnipos-capital-service/internal/ledger"
	vendor "github.com/fekuna/omnipos-capital-service/internal/merchant"
	"github.com/fekuna/omnipos-capital-service/internal/merchant/dto"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/partner"
	"github.com/fekuna/omnipos-capital-service/pkg/cache"
	"github.com/fekuna/omnipos-capital-service/pkg/database"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"github.com/fekuna/omnipos-capital-service/pkg/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type vendorUseCase struct {
	repo     vendor.Repository
	partners partner.Repository
	ledger   ledger.UseCase
	accounts account.Provisioner
	tx       *database.TxManager
	cache    cache.Store
	logger   logger.ZapLogger
}

// NewVendorUseCase accepts a nil cache.
func NewVendorUseCase(
	repo vendor.Repository,
	partners partner.Repository,
	ledgerUC ledger.UseCase,
	accounts account.Provisioner,
	tx *database.TxManager,
	cache cache.Store,
	log logger.ZapLogger,
) vendor.UseCase {
	return &vendorUseCase{
		repo:     repo,
		partners: partners,
		ledger:   ledgerUC,
		accounts: accounts,
		tx:       tx,
		cache:    cache,
		logger:   log,
	}
}

// CreateVendor opens the books with capitalBalance equal to initialCapital.
// No opening transaction is posted; the initial capital is the log's base.
func (uc *vendorUseCase) CreateVendor(ctx context.Context, input *dto.CreateVendorInput) (*dto.CreateVendorResult, error) {
	if err := auth.RequireRole(ctx, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, err)
	}
	if err := ledger.ValidateScale(input.InitialCapital); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	v := &model.Vendor{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:           input.Name,
		Email:          input.Email,
		InitialCapital: input.InitialCapital,
		CapitalBalance: input.InitialCapital,
		CommissionRate: input.CommissionRate,
	}
	result := &dto.CreateVendorResult{Vendor: v}

	var provisioned string
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.Create(ctx, v); err != nil {
			return err
		}
		if input.Founder == nil {
			return nil
		}

		founder := &model.Partner{
			BaseModel:      model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			VendorID:       v.ID,
			PartnerName:    input.Founder.PartnerName,
			PartnerType:    input.Founder.PartnerType,
			InitialAmount:  input.InitialCapital,
			CurrentAmount:  input.InitialCapital,
			CapitalPercent: decimal.Zero,
			PercentAsOf:    now,
		}
		if founder.PartnerType == "" {
			founder.PartnerType = model.PartnerOwner
		}
		if input.InitialCapital.IsPositive() {
			founder.CapitalPercent = decimal.NewFromInt(100)
		}
		if err := uc.partners.Create(ctx, founder); err != nil {
			return err
		}

		if input.Founder.Email != "" {
			id, err := uc.accounts.Provision(ctx, account.Request{
				Email:    input.Founder.Email,
				Name:     founder.PartnerName,
				Role:     auth.RoleVendor,
				VendorID: v.ID,
			})
			if err != nil {
				return err
			}
			provisioned = id
			if err := uc.partners.SetUserID(ctx, founder.ID, id); err != nil {
				return err
			}
			founder.UserID = &id
		}
		result.Founder = founder
		return nil
	})
	if err != nil {
		if provisioned != "" {
			if rerr := uc.accounts.Revoke(context.WithoutCancel(ctx), provisioned); rerr != nil {
				uc.logger.Error("failed to revoke account after rollback", zap.String("user_id", provisioned), zap.Error(rerr))
			}
		}
		uc.logger.Warn("vendor creation rolled back", zap.String("email", input.Email), zap.Error(err))
		return nil, err
	}

	uc.logger.Info("vendor created",
		zap.String("vendor_id", v.ID),
		zap.String("initial_capital", v.InitialCapital.String()),
		zap.Bool("founder", result.Founder != nil),
	)
	return result, nil
}

func (uc *vendorUseCase) GetVendor(ctx context.Context, id string) (*model.Vendor, error) {
	if err := auth.RequireVendorAccess(ctx, id); err != nil {
		return nil, err
	}
	v, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, apperr.Wrapf(apperr.ErrVendorNotFound, "vendor %s", id)
	}
	return v, nil
}

// DeleteVendor only removes vendors with nothing on their books. Partners,
// postings, pending payables or a nonzero balance block it.
func (uc *vendorUseCase) DeleteVendor(ctx context.Context, id string) error {
	if err := auth.RequireRole(ctx, auth.RoleAdmin); err != nil {
		return err
	}

	err := uc.ledger.RunAtomic(ctx, id, func(ctx context.Context) error {
		v, err := uc.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if v == nil {
			return apperr.Wrapf(apperr.ErrVendorNotFound, "vendor %s", id)
		}
		if !v.CapitalBalance.IsZero() {
			return apperr.Wrapf(apperr.ErrVendorHasEquity, "capital balance is %s", v.CapitalBalance)
		}

		a, err := uc.repo.Activity(ctx, id)
		if err != nil {
			return err
		}
		if a.Partners > 0 || a.Transactions > 0 || a.PendingPayables > 0 {
			return apperr.Wrap(apperr.ErrVendorHasEquity, fmt.Errorf(
				"%d partners, %d transactions, %d pending payables", a.Partners, a.Transactions, a.PendingPayables))
		}
		return uc.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	if uc.cache != nil {
		if err := uc.cache.DeletePattern(context.WithoutCancel(ctx), fmt.Sprintf("products:list:%s:*", id)); err != nil {
			uc.logger.Warn("failed to invalidate product cache", zap.String("vendor_id", id), zap.Error(err))
		}
		if err := uc.cache.Delete(context.WithoutCancel(ctx), ledger.ReportCacheKey(id)); err != nil {
			uc.logger.Warn("failed to invalidate reconciliation cache", zap.String("vendor_id", id), zap.Error(err))
		}
	}
	uc.logger.Info("vendor deleted", zap.String("vendor_id", id))
	return nil
}
