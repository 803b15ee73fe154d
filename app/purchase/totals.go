package purchase

import (
	"github.com/shopspring/decimal"
)

// TaxRate is the consumption tax applied to every purchase.
var TaxRate = decimal.New(10, -2)

var taxMultiplier = decimal.NewFromInt(1).Add(TaxRate)

// PricedLine is a cart line with the unit price captured at lookup time.
type PricedLine struct {
	Code      string
	Name      string
	Qty       int
	UnitPrice int64
}

type Totals struct {
	ExTax  decimal.Decimal
	IncTax decimal.Decimal
}

// ComputeTotals sums price*qty exactly and applies tax once to the grand
// total, rounding half away from zero to whole minor units.
func ComputeTotals(lines []PricedLine) Totals {
	exTax := decimal.Zero
	for _, l := range lines {
		exTax = exTax.Add(decimal.NewFromInt(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Qty))))
	}
	return Totals{
		ExTax:  exTax,
		IncTax: IncludeTax(exTax),
	}
}

func IncludeTax(exTax decimal.Decimal) decimal.Decimal {
	return exTax.Mul(taxMultiplier).Round(0)
}
