package dto

import (
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/shopspring/decimal"
)

type CreateVendorInput struct {
	Name           string          `json:"name" validate:"required,max=255"`
	Email          string          `json:"email" validate:"required,email"`
	InitialCapital decimal.Decimal `json:"initial_capital" validate:"gte=0"`
	CommissionRate decimal.Decimal `json:"commission_rate" validate:"gte=0,lte=100"`
	// Founder, when set, records the initial capital as one owner's stake.
	Founder *FounderInput `json:"founder"`
}

type FounderInput struct {
	PartnerName string            `json:"partner_name" validate:"required,max=255"`
	PartnerType model.PartnerType `json:"partner_type" validate:"omitempty,oneof=owner investor other"`
	// Email, when set, provisions a user account for the founder.
	Email string `json:"email" validate:"omitempty,email"`
}

type CreateVendorResult struct {
	Vendor  *model.Vendor  `json:"vendor"`
	Founder *model.Partner `json:"founder,omitempty"`
}

// Activity counts what ties a vendor to its books.
type Activity struct {
	Partners        int `db:"partners"`
	Transactions    int `db:"transactions"`
	PendingPayables int `db:"pending_payables"`
}
