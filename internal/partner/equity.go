package partner

import (
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ContributionPercent is the share a contribution buys when it joins
// currentTotal: c / (currentTotal + c) * 100, clamped to [0, 100] and rounded
// to 4 places. A non-positive resulting total yields 0.
func ContributionPercent(currentTotal, contribution decimal.Decimal) decimal.Decimal {
	newTotal := currentTotal.Add(contribution)
	if !newTotal.IsPositive() {
		return decimal.Zero
	}
	return clamp(contribution.Div(newTotal).Mul(hundred)).Round(4)
}

// RecomputeShares sets every partner's percent to currentAmount / pool. The
// denominator is never below the sum of partner amounts and percents are
// truncated, so the shares never add up to more than 100.
func RecomputeShares(partners []model.Partner, pool decimal.Decimal, asOf time.Time) []model.Partner {
	sum := decimal.Zero
	for _, p := range partners {
		sum = sum.Add(p.CurrentAmount)
	}
	denominator := decimal.Max(pool, sum)

	out := make([]model.Partner, len(partners))
	for i, p := range partners {
		p.CapitalPercent = decimal.Zero
		if denominator.IsPositive() && p.CurrentAmount.IsPositive() {
			p.CapitalPercent = clamp(p.CurrentAmount.Div(denominator).Mul(hundred)).Truncate(4)
		}
		p.PercentAsOf = asOf
		out[i] = p
	}
	return out
}

// TotalPercent sums the stored percents of partners.
func TotalPercent(partners []model.Partner) decimal.Decimal {
	total := decimal.Zero
	for _, p := range partners {
		total = total.Add(p.CapitalPercent)
	}
	return total
}

func clamp(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}
