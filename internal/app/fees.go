package app

import (
	"github.com/shopspring/decimal"

	"property-finance-system/internal/core/domain"
)

var oneHundred = decimal.NewFromInt(100)

// CalculateFee computes the processing fee for a method and amount.
// Percentage fees are rounded to whole shillings; the result is never
// negative.
func CalculateFee(cfg domain.PaymentMethodConfig, amount decimal.Decimal) decimal.Decimal {
	var fee decimal.Decimal
	switch cfg.Fee.Kind {
	case domain.FeePercentage:
		fee = amount.Mul(cfg.Fee.Rate).Div(oneHundred).Round(0)
	case domain.FeeFixed:
		fee = cfg.Fee.Amount
	default:
		fee = decimal.Zero
	}
	if fee.IsNegative() {
		return decimal.Zero
	}
	return fee
}
