package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// TaxBreakdown splits a tax-inclusive total into its taxable value and the
// tax portion.
type TaxBreakdown struct {
	TaxableValue decimal.Decimal
	TaxAmount    decimal.Decimal
}

// DecomposeInclusive extracts the taxable value from a tax-inclusive total:
// taxableValue = total / (1 + rate/100), taxAmount = total - taxableValue.
// Amounts round half-up to 2 decimals so repeated decomposition of an
// already-rounded total is a fixed point.
func DecomposeInclusive(total, rate decimal.Decimal) TaxBreakdown {
	total = total.Round(2)
	if rate.IsZero() {
		return TaxBreakdown{TaxableValue: total, TaxAmount: decimal.Zero.Round(2)}
	}
	divisor := decimal.NewFromInt(1).Add(rate.Div(hundred))
	taxable := total.DivRound(divisor, 2)
	return TaxBreakdown{
		TaxableValue: taxable,
		TaxAmount:    total.Sub(taxable),
	}
}
