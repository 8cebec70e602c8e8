package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/fekuna/omnipos-capital-service/internal/auth"
	"github.com/fekuna/omnipos-capital-service/internal/ledger"
	ledgerdto "github.com/fekuna/omnipos-capital-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/product"
	"github.com/fekuna/omnipos-capital-service/internal/product/dto"
	"github.com/fekuna/omnipos-capital-service/internal/valuation"
	"github.com/fekuna/omnipos-capital-service/pkg/cache"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"github.com/fekuna/omnipos-capital-service/pkg/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type productUseCase struct {
	repo   product.Repository
	ledger ledger.UseCase
	cache  cache.Store
	logger logger.ZapLogger
}

// NewProductUseCase accepts a nil cache; listings then always hit the database.
func NewProductUseCase(repo product.Repository, ledgerUC ledger.UseCase, cache cache.Store, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:   repo,
		ledger: ledgerUC,
		cache:  cache,
		logger: log,
	}
}

func (uc *productUseCase) RegisterProduct(ctx context.Context, input *dto.RegisterProductInput) (*model.Product, error) {
	if err := auth.RequireVendorAccess(ctx, input.VendorID); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, err)
	}
	if err := validateCosts(input.SupplierCost, input.ProductionCost); err != nil {
		return nil, err
	}
	if input.ProductSource == model.SourceConsignment && input.SupplierCost == nil {
		return nil, apperr.Wrapf(apperr.ErrInvalidInput, "consignment product %s needs a supplier cost", input.SKU)
	}

	if _, err := uc.ledger.GetBalance(ctx, input.VendorID); err != nil {
		return nil, err
	}

	unique, err := uc.repo.IsSKUUnique(ctx, input.VendorID, input.SKU, "")
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, apperr.Wrapf(apperr.ErrInvalidInput, "SKU %s already exists", input.SKU)
	}

	now := time.Now().UTC()
	var supplierID *string
	if input.SupplierID != "" {
		supplierID = &input.SupplierID
	}

	p := &model.Product{
		BaseModel:      model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		VendorID:       input.VendorID,
		SupplierID:     supplierID,
		SKU:            input.SKU,
		Name:           input.Name,
		ProductSource:  input.ProductSource,
		SupplierCost:   nullable(input.SupplierCost),
		ProductionCost: nullable(input.ProductionCost),
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.invalidateProductCache(ctx, p.VendorID)
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.Wrapf(apperr.ErrProductNotFound, "product %s", id)
	}
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	// 1. Generate Cache Key
	cacheKey, err := uc.generateCacheKey(filters)
	if err == nil && uc.cache != nil {
		// 2. Check Cache
		if val, err := uc.cache.Get(ctx, cacheKey); err == nil {
			var result struct {
				Products []model.Product
				Count    int
			}
			if err := json.Unmarshal(val, &result); err == nil {
				return result.Products, result.Count, nil
			}
		}
	}

	// 3. DB Query
	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	// 4. Set Cache
	if cacheKey != "" && uc.cache != nil {
		cacheData := struct {
			Products []model.Product
			Count    int
		}{
			Products: products,
			Count:    count,
		}
		if data, err := json.Marshal(cacheData); err == nil {
			if err := uc.cache.Set(ctx, cacheKey, data, 5*time.Minute); err != nil {
				uc.logger.Warn("failed to cache product list", zap.Error(err))
			}
		}
	}

	return products, count, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	if err := validation.Struct(input); err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, err)
	}
	if err := validateCosts(input.SupplierCost, input.ProductionCost); err != nil {
		return nil, err
	}

	p, err := uc.GetProduct(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireVendorAccess(ctx, p.VendorID); err != nil {
		return nil, err
	}
	if p.ProductSource == model.SourceConsignment && input.SupplierCost == nil {
		return nil, apperr.Wrapf(apperr.ErrInvalidInput, "consignment product %s needs a supplier cost", input.SKU)
	}

	if p.SKU != input.SKU {
		unique, err := uc.repo.IsSKUUnique(ctx, p.VendorID, input.SKU, p.ID)
		if err != nil {
			return nil, err
		}
		if !unique {
			return nil, apperr.Wrapf(apperr.ErrInvalidInput, "SKU %s already exists", input.SKU)
		}
	}

	p.SKU = input.SKU
	p.Name = input.Name
	p.SupplierCost = nullable(input.SupplierCost)
	p.ProductionCost = nullable(input.ProductionCost)
	p.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	uc.invalidateProductCache(ctx, p.VendorID)
	return p, nil
}

func (uc *productUseCase) PurchaseStock(ctx context.Context, input *dto.PurchaseStockInput) (*dto.PurchaseResult, error) {
	if err := auth.RequireRole(ctx, auth.RoleAdmin, auth.RoleSystem); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, err)
	}
	if err := validateCosts(input.UnitCost); err != nil {
		return nil, err
	}

	p, err := uc.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	// consignment goods arrive on the supplier's money
	if !valuation.Classify(p).CapitalImpacting {
		received, err := uc.ReceiveConsignment(ctx, &dto.ReceiveConsignmentInput{ProductID: p.ID, Quantity: input.Quantity})
		if err != nil {
			return nil, err
		}
		return &dto.PurchaseResult{Product: received}, nil
	}

	unitCost := valuation.UnitCost(p)
	if input.UnitCost != nil {
		unitCost = *input.UnitCost
	}
	total := unitCost.Mul(decimal.NewFromInt(input.Quantity))

	description := input.Description
	if description == "" {
		description = fmt.Sprintf("Purchase %d x %s @ %s", input.Quantity, p.SKU, unitCost.StringFixed(2))
	}

	repriced := input.UnitCost != nil && !(p.SupplierCost.Valid && p.SupplierCost.Decimal.Equal(unitCost))
	if repriced {
		p.SupplierCost = decimal.NewNullDecimal(unitCost)
		p.UpdatedAt = time.Now().UTC()
	}

	var result *dto.PurchaseResult
	err = uc.ledger.RunAtomic(ctx, p.VendorID, func(ctx context.Context) error {
		if repriced {
			if err := uc.repo.Update(ctx, p); err != nil {
				return err
			}
		}

		updated, err := uc.repo.AdjustStock(ctx, p.ID, input.Quantity)
		if err != nil {
			return err
		}

		t, err := uc.ledger.Post(ctx, &ledgerdto.PostTransactionInput{
			VendorID:      p.VendorID,
			Type:          model.TransactionPurchase,
			Amount:        total,
			Description:   description,
			ReferenceType: ledger.ReferencePurchase,
			ReferenceID:   p.ID,
		})
		if err != nil {
			return err
		}

		result = &dto.PurchaseResult{Product: updated, Transaction: t}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.invalidateProductCache(ctx, p.VendorID)
	uc.logger.Info("owned stock purchased",
		zap.String("vendor_id", p.VendorID),
		zap.String("product_id", p.ID),
		zap.Int64("quantity", input.Quantity),
		zap.String("amount", total.String()),
	)
	return result, nil
}

func (uc *productUseCase) ReceiveConsignment(ctx context.Context, input *dto.ReceiveConsignmentInput) (*model.Product, error) {
	if err := validation.Struct(input); err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidInput, err)
	}

	p, err := uc.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireVendorAccess(ctx, p.VendorID); err != nil {
		return nil, err
	}
	if p.ProductSource != model.SourceConsignment {
		return nil, apperr.Wrapf(apperr.ErrInvalidInput, "product %s is not consignment stock", p.SKU)
	}

	updated, err := uc.repo.AdjustStock(ctx, p.ID, input.Quantity)
	if err != nil {
		return nil, err
	}

	uc.invalidateProductCache(ctx, p.VendorID)
	return updated, nil
}

func (uc *productUseCase) AdjustStock(ctx context.Context, productID string, delta int64) (*model.Product, error) {
	p, err := uc.repo.AdjustStock(ctx, productID, delta)
	if err != nil {
		return nil, err
	}
	uc.invalidateProductCache(ctx, p.VendorID)
	return p, nil
}

func (uc *productUseCase) generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:list:%s:%x", filters.VendorID, md5.Sum(data)), nil
}

func (uc *productUseCase) invalidateProductCache(ctx context.Context, vendorID string) {
	if uc.cache == nil {
		return
	}
	// Invalidate all list caches for this vendor
	pattern := fmt.Sprintf("products:list:%s:*", vendorID)
	if err := uc.cache.DeletePattern(context.WithoutCancel(ctx), pattern); err != nil {
		uc.logger.Warn("failed to invalidate product cache", zap.String("vendor_id", vendorID), zap.Error(err))
	}
	// stock value feeds the reconciliation report
	if err := uc.cache.Delete(context.WithoutCancel(ctx), ledger.ReportCacheKey(vendorID)); err != nil {
		uc.logger.Warn("failed to invalidate reconciliation cache", zap.String("vendor_id", vendorID), zap.Error(err))
	}
}

func validateCosts(costs ...*decimal.Decimal) error {
	for _, c := range costs {
		if c == nil {
			continue
		}
		if c.IsNegative() {
			return apperr.Wrapf(apperr.ErrInvalidAmount, "cost %s must not be negative", c)
		}
		if err := ledger.ValidateScale(*c); err != nil {
			return err
		}
	}
	return nil
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
