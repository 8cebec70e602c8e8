package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/account"
	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/fekuna/omnipos-capital-service/internal/auth"
	"github.com/fekuna/omnipos-capital-service/internal/ledger"
	ledgerdto "github.com/fekuna/omnipos-capital-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/partner"
	"github.com/fekuna/omnipos-capital-service/internal/partner/dto"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"github.com/fekuna/omnipos-capital-service/pkg/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type partnerUseCase struct {
	repo         partner.Repository
	ledgerRepo   ledger.Repository
	ledger       ledger.UseCase
	accounts     account.Provisioner
	recomputeAll bool
	maxAmount    decimal.Decimal
	logger       logger.ZapLogger
}

type Options struct {
	// RecomputeAll refreshes every partner's share on each admission. When
	// false, existing shares keep the value they had when they were admitted.
	RecomputeAll bool
	MaxAmount    decimal.Decimal
}

func NewPartnerUseCase(repo partner.Repository, ledgerRepo ledger.Repository, ledgerUC ledger.UseCase, accounts account.Provisioner, opts Options, log logger.ZapLogger) partner.UseCase {
	if accounts == nil {
		accounts = account.NopProvisioner{}
	}
	return &partnerUseCase{
		repo:         repo,
		ledgerRepo:   ledgerRepo,
		ledger:       ledgerUC,
		accounts:     accounts,
		recomputeAll: opts.RecomputeAll,
		maxAmount:    opts.MaxAmount,
		logger:       log,
	}
}

func (uc *partnerUseCase) AdmitPartner(ctx context.Context, input *dto.AdmitPartnerInput) (*dto.AdmitPartnerResult, error) {
	if err := auth.RequireRole(ctx, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, err)
	}
	if err := ledger.ValidateAmount(input.Amount, uc.maxAmount); err != nil {
		return nil, err
	}
	if input.PartnerType == "" {
		input.PartnerType = model.PartnerInvestor
	}

	var (
		result      *dto.AdmitPartnerResult
		provisioned string
	)
	err := uc.ledger.RunAtomic(ctx, input.VendorID, func(ctx context.Context) error {
		// a retried attempt must not leave the previous attempt's account behind
		if provisioned != "" {
			uc.revoke(ctx, provisioned)
			provisioned = ""
		}

		balance, err := uc.ledger.GetBalance(ctx, input.VendorID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		p := &model.Partner{
			BaseModel: model.BaseModel{
				ID:        uuid.New().String(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			VendorID:       input.VendorID,
			PartnerName:    input.PartnerName,
			PartnerType:    input.PartnerType,
			InitialAmount:  input.Amount,
			CurrentAmount:  input.Amount,
			CapitalPercent: partner.ContributionPercent(balance.CapitalBalance, input.Amount),
			PercentAsOf:    now,
		}
		if input.RequestedPercent != nil {
			p.RequestedPercent = decimal.NewNullDecimal(*input.RequestedPercent)
		}
		if err := uc.repo.Create(ctx, p); err != nil {
			return err
		}

		description := input.Description
		if description == "" {
			description = fmt.Sprintf("Capital contribution from partner %s", p.PartnerName)
		}
		deposit, err := uc.ledger.Post(ctx, &ledgerdto.PostTransactionInput{
			VendorID:      input.VendorID,
			Type:          model.TransactionDeposit,
			Amount:        input.Amount,
			Description:   description,
			PartnerID:     &p.ID,
			ReferenceType: ledger.ReferencePartnerAdmission,
			ReferenceID:   p.ID,
		})
		if err != nil {
			return err
		}

		partners, err := uc.repo.ListByVendor(ctx, input.VendorID)
		if err != nil {
			return err
		}
		if uc.recomputeAll {
			if partners, err = uc.recompute(ctx, input.VendorID, partners, now); err != nil {
				return err
			}
			for i := range partners {
				if partners[i].ID == p.ID {
					p.CapitalPercent = partners[i].CapitalPercent
				}
			}
		}

		var userID *string
		if input.Email != "" {
			id, err := uc.accounts.Provision(ctx, account.Request{
				Email:    input.Email,
				Name:     input.PartnerName,
				Role:     auth.RoleVendor,
				VendorID: input.VendorID,
			})
			if err != nil {
				return err
			}
			provisioned = id
			if err := uc.repo.SetUserID(ctx, p.ID, id); err != nil {
				return err
			}
			p.UserID = &id
			userID = &id
		}

		result = &dto.AdmitPartnerResult{
			Partner:     p,
			Transaction: deposit,
			UserID:      userID,
			Partners:    partners,
		}
		return nil
	})
	if err != nil {
		if provisioned != "" {
			uc.revoke(ctx, provisioned)
		}
		uc.logger.Warn("partner admission rolled back",
			zap.String("vendor_id", input.VendorID),
			zap.String("partner_name", input.PartnerName),
			zap.Error(err),
		)
		return nil, err
	}

	uc.logger.Info("partner admitted",
		zap.String("vendor_id", input.VendorID),
		zap.String("partner_id", result.Partner.ID),
		zap.String("amount", input.Amount.String()),
		zap.String("capital_percent", result.Partner.CapitalPercent.String()),
	)
	return result, nil
}

func (uc *partnerUseCase) GetPartner(ctx context.Context, id string) (*model.Partner, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.Wrapf(apperr.ErrPartnerNotFound, "partner %s", id)
	}
	return p, nil
}

func (uc *partnerUseCase) ListPartners(ctx context.Context, vendorID string) ([]model.Partner, error) {
	return uc.repo.ListByVendor(ctx, vendorID)
}

func (uc *partnerUseCase) RecomputeEquity(ctx context.Context, vendorID string) (*dto.EquitySummary, error) {
	if err := auth.RequireRole(ctx, auth.RoleAdmin, auth.RoleSystem); err != nil {
		return nil, err
	}

	var summary *dto.EquitySummary
	err := uc.ledger.RunAtomic(ctx, vendorID, func(ctx context.Context) error {
		partners, err := uc.repo.ListByVendor(ctx, vendorID)
		if err != nil {
			return err
		}
		pool, err := uc.pool(ctx, vendorID)
		if err != nil {
			return err
		}
		if partners, err = uc.recompute(ctx, vendorID, partners, time.Now().UTC()); err != nil {
			return err
		}
		summary = &dto.EquitySummary{
			VendorID:     vendorID,
			Pool:         pool,
			TotalPercent: partner.TotalPercent(partners),
			Partners:     partners,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (uc *partnerUseCase) recompute(ctx context.Context, vendorID string, partners []model.Partner, asOf time.Time) ([]model.Partner, error) {
	pool, err := uc.pool(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	updated := partner.RecomputeShares(partners, pool, asOf)
	if err := uc.repo.UpdateShares(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// pool is the vendor's current capital balance. Inside an admission it already
// includes the new contribution, so the admitted share is c / (balance + c).
func (uc *partnerUseCase) pool(ctx context.Context, vendorID string) (decimal.Decimal, error) {
	v, err := uc.ledgerRepo.GetVendor(ctx, vendorID)
	if err != nil {
		return decimal.Zero, err
	}
	if v == nil {
		return decimal.Zero, apperr.Wrapf(apperr.ErrVendorNotFound, "vendor %s", vendorID)
	}
	return v.CapitalBalance, nil
}

func (uc *partnerUseCase) revoke(ctx context.Context, userID string) {
	if err := uc.accounts.Revoke(context.WithoutCancel(ctx), userID); err != nil {
		uc.logger.Error("failed to revoke provisioned account", zap.String("user_id", userID), zap.Error(err))
	}
}
