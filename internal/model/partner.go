package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PartnerType string

const (
	PartnerOwner    PartnerType = "owner"
	PartnerInvestor PartnerType = "investor"
	PartnerOther    PartnerType = "other"
)

type Partner struct {
	BaseModel
	VendorID         string              `db:"vendor_id" json:"vendor_id"`
	UserID           *string             `db:"user_id" json:"user_id,omitempty"`
	PartnerName      string              `db:"partner_name" json:"partner_name"`
	PartnerType      PartnerType         `db:"partner_type" json:"partner_type"`
	InitialAmount    decimal.Decimal     `db:"initial_amount" json:"initial_amount"`
	CurrentAmount    decimal.Decimal     `db:"current_amount" json:"current_amount"`
	CapitalPercent   decimal.Decimal     `db:"capital_percent" json:"capital_percent"`
	RequestedPercent decimal.NullDecimal `db:"requested_percent" json:"requested_percent"` // display hint only
	PercentAsOf      time.Time           `db:"percent_as_of" json:"percent_as_of"`
}
