package dto

import (
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/shopspring/decimal"
)

type AdmitPartnerInput struct {
	VendorID    string            `json:"vendor_id" validate:"required"`
	PartnerName string            `json:"partner_name" validate:"required,max=255"`
	PartnerType model.PartnerType `json:"partner_type" validate:"omitempty,oneof=owner investor other"`
	Amount      decimal.Decimal   `json:"amount"`
	// RequestedPercent is what the partner asked for. It is stored for display
	// and never used to compute the share.
	RequestedPercent *decimal.Decimal `json:"requested_percent"`
	Description      string           `json:"description" validate:"max=500"`
	// Email, when set, provisions a user account for the partner.
	Email string `json:"email" validate:"omitempty,email"`
}

type AdmitPartnerResult struct {
	Partner     *model.Partner            `json:"partner"`
	Transaction *model.CapitalTransaction `json:"transaction"`
	UserID      *string                   `json:"user_id,omitempty"`
	Partners    []model.Partner           `json:"partners"`
}

type EquitySummary struct {
	VendorID     string          `json:"vendor_id"`
	Pool         decimal.Decimal `json:"pool"`
	TotalPercent decimal.Decimal `json:"total_percent"`
	Partners     []model.Partner `json:"partners"`
}
