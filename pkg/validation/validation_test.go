package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type moneyInput struct {
	VendorID string          `validate:"required"`
	Amount   decimal.Decimal `validate:"gt=0,lte=1000"`
}

func TestStruct_Decimal(t *testing.T) {
	assert.NoError(t, Struct(moneyInput{VendorID: "v1", Amount: decimal.NewFromInt(10)}))
	assert.Error(t, Struct(moneyInput{VendorID: "v1", Amount: decimal.Zero}))
	assert.Error(t, Struct(moneyInput{VendorID: "v1", Amount: decimal.NewFromInt(-5)}))
	assert.Error(t, Struct(moneyInput{VendorID: "v1", Amount: decimal.NewFromInt(1001)}))
	assert.Error(t, Struct(moneyInput{Amount: decimal.NewFromInt(10)}))
}
