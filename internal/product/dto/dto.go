package dto

import (
	"github.com/fekuna/omnipos-capital-service/internal/model"
)

type ProductFilters struct {
	VendorID      string              `json:"vendor_id"`
	SupplierID    string              `json:"supplier_id"`
	ProductSource model.ProductSource `json:"product_source"`
	SearchQuery   string              `json:"search_query"` // name or sku
	SortBy        string              `json:"sort_by"`      // name, stock, created_at
	SortOrder     string              `json:"sort_order"`   // asc, desc
	Page          int                 `json:"page"`
	PageSize      int                 `json:"page_size"`
}

type PurchaseResult struct {
	Product *model.Product `json:"product"`
	// Transaction is nil for consignment receipts, which never touch capital.
	Transaction *model.CapitalTransaction `json:"transaction,omitempty"`
}
