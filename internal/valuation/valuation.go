// Package valuation decides which stock is the vendor's own money and what it
// is worth at cost.
package valuation

import (
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/shopspring/decimal"
)

type Classification struct {
	CapitalImpacting bool            `json:"capital_impacting"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
}

// Classify treats OWNED products as capital-impacting. Consignment stock
// belongs to the supplier until it sells.
func Classify(p *model.Product) Classification {
	return Classification{
		CapitalImpacting: p.ProductSource == model.SourceOwned,
		UnitCost:         UnitCost(p),
	}
}

// UnitCost prefers the supplier cost, then the production cost. Unknown cost is zero.
func UnitCost(p *model.Product) decimal.Decimal {
	if p.SupplierCost.Valid {
		return p.SupplierCost.Decimal
	}
	if p.ProductionCost.Valid {
		return p.ProductionCost.Decimal
	}
	return decimal.Zero
}

// OwnedStockValue is the capital currently sitting on the shelf.
func OwnedStockValue(products []model.Product) decimal.Decimal {
	return stockValue(products, true)
}

// ConsignmentStockValue is informational; it never enters expected capital.
func ConsignmentStockValue(products []model.Product) decimal.Decimal {
	return stockValue(products, false)
}

func stockValue(products []model.Product, owned bool) decimal.Decimal {
	total := decimal.Zero
	for i := range products {
		c := Classify(&products[i])
		if c.CapitalImpacting != owned || products[i].StockQuantity <= 0 {
			continue
		}
		total = total.Add(c.UnitCost.Mul(decimal.NewFromInt(products[i].StockQuantity)))
	}
	return total
}
