package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDecomposeInclusive(t *testing.T) {
	cases := []struct {
		name        string
		total       string
		rate        string
		wantTaxable string
		wantTax     string
	}{
		{"gst 18 on 118", "118", "18", "100.00", "18.00"},
		{"gst 5 on 105", "105", "5", "100.00", "5.00"},
		{"zero rate", "250.50", "0", "250.50", "0.00"},
		{"rounding half up", "99.99", "18", "84.74", "15.25"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DecomposeInclusive(decimal.RequireFromString(tc.total), decimal.RequireFromString(tc.rate))
			if got.TaxableValue.StringFixed(2) != tc.wantTaxable {
				t.Fatalf("taxable = %s, want %s", got.TaxableValue.StringFixed(2), tc.wantTaxable)
			}
			if got.TaxAmount.StringFixed(2) != tc.wantTax {
				t.Fatalf("tax = %s, want %s", got.TaxAmount.StringFixed(2), tc.wantTax)
			}
			sum := got.TaxableValue.Add(got.TaxAmount)
			if !sum.Equal(decimal.RequireFromString(tc.total).Round(2)) {
				t.Fatalf("taxable + tax = %s, want %s", sum, tc.total)
			}
		})
	}
}

func TestDecomposeInclusiveIsIdempotent(t *testing.T) {
	rate := decimal.RequireFromString("18")
	first := DecomposeInclusive(decimal.RequireFromString("118"), rate)
	recomposed := first.TaxableValue.Add(first.TaxAmount)
	second := DecomposeInclusive(recomposed, rate)
	if !second.TaxableValue.Equal(first.TaxableValue) || !second.TaxAmount.Equal(first.TaxAmount) {
		t.Fatalf("repeated decomposition diverged: %+v vs %+v", first, second)
	}
}
