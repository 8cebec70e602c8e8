package dto

import (
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/shopspring/decimal"
)

type OrderLine struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
	// UnitPrice is what the customer paid per unit.
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type DeliveredOrderInput struct {
	VendorID string      `json:"vendor_id" validate:"required"`
	OrderID  string      `json:"order_id" validate:"required"`
	Items    []OrderLine `json:"items" validate:"required,min=1,dive"`
}

type ApplyResult struct {
	OrderID string `json:"order_id"`
	// SaleProceeds is nil when the order only sold consignment goods.
	SaleProceeds *model.CapitalTransaction `json:"sale_proceeds,omitempty"`
	Payables     []model.SupplierPayment   `json:"payables,omitempty"`
}
