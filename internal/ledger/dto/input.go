package dto

import (
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/shopspring/decimal"
)

type PostTransactionInput struct {
	VendorID      string                `json:"vendor_id" validate:"required"`
	Type          model.TransactionType `json:"type" validate:"required"`
	Amount        decimal.Decimal       `json:"amount"`
	Description   string                `json:"description" validate:"max=500"`
	PartnerID     *string               `json:"partner_id"`
	ReferenceType string                `json:"reference_type"` // 'manual', 'order', 'partner_admission', 'supplier_settlement', 'purchase'
	ReferenceID   string                `json:"reference_id"`
	// AllowNegative lets a PAYMENT_TO_SUPPLIER drive the balance below zero.
	// It is ignored for every other type.
	AllowNegative bool `json:"allow_negative"`
}
