package dto

import (
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/shopspring/decimal"
)

type RegisterProductInput struct {
	VendorID       string              `json:"vendor_id" validate:"required"`
	SupplierID     string              `json:"supplier_id" validate:"required_if=ProductSource CONSIGNMENT"`
	SKU            string              `json:"sku" validate:"required,max=100"`
	Name           string              `json:"name" validate:"required,max=255"`
	ProductSource  model.ProductSource `json:"product_source" validate:"required,oneof=OWNED CONSIGNMENT"`
	SupplierCost   *decimal.Decimal    `json:"supplier_cost"`
	ProductionCost *decimal.Decimal    `json:"production_cost"`
}

type UpdateProductInput struct {
	ID             string           `json:"id" validate:"required"`
	SKU            string           `json:"sku" validate:"required,max=100"`
	Name           string           `json:"name" validate:"required,max=255"`
	SupplierCost   *decimal.Decimal `json:"supplier_cost"`
	ProductionCost *decimal.Decimal `json:"production_cost"`
}

type PurchaseStockInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
	// UnitCost overrides the product's cost for this purchase and becomes its
	// new supplier cost.
	UnitCost    *decimal.Decimal `json:"unit_cost"`
	Description string           `json:"description" validate:"max=500"`
}

type ReceiveConsignmentInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
}
