package model

import "github.com/shopspring/decimal"

type ProductSource string

const (
	SourceOwned       ProductSource = "OWNED"
	SourceConsignment ProductSource = "CONSIGNMENT"
)

func (s ProductSource) Valid() bool {
	return s == SourceOwned || s == SourceConsignment
}

type Product struct {
	BaseModel
	VendorID       string              `db:"vendor_id" json:"vendor_id"`
	SupplierID     *string             `db:"supplier_id" json:"supplier_id"`
	SKU            string              `db:"sku" json:"sku"`
	Name           string              `db:"name" json:"name"`
	ProductSource  ProductSource       `db:"product_source" json:"product_source"`
	SupplierCost   decimal.NullDecimal `db:"supplier_cost" json:"supplier_cost"`
	ProductionCost decimal.NullDecimal `db:"production_cost" json:"production_cost"`
	StockQuantity  int64               `db:"stock_quantity" json:"stock_quantity"`
}
