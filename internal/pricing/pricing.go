// Package pricing computes order amounts. All amounts are rounded to cents
// half away from zero at each step.
package pricing

import "github.com/shopspring/decimal"

var (
	TaxRate = decimal.RequireFromString("0.0825")

	hundred = decimal.NewFromInt(100)
)

type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Calculate prices lines with an optional discount percentage (nil or zero for none).
// The discount applies to the subtotal only; tax is computed before discount.
func Calculate(lines []Line, discountPct *decimal.Decimal) Summary {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(TaxRate).Round(2)

	discount := decimal.Zero
	if discountPct != nil {
		pct := clamp(*discountPct)
		discount = subtotal.Mul(pct).Div(hundred).Round(2)
	}

	return Summary{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    subtotal.Add(tax).Sub(discount),
	}
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

// ToMinorUnits converts a currency amount to cents.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
