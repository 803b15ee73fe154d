package purchase

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	testCases := []struct {
		name         string
		lines        []PricedLine
		expectExTax  int64
		expectIncTax int64
	}{
		{"Empty", nil, 0, 0},
		{"Two at 100", []PricedLine{{Code: "A", Qty: 2, UnitPrice: 100}}, 200, 220},
		{"Three at 111", []PricedLine{{Code: "A", Qty: 3, UnitPrice: 111}}, 333, 366},
		{"Exact half rounds up", []PricedLine{{Code: "A", Qty: 1, UnitPrice: 5}}, 5, 6},
		{"Another half", []PricedLine{{Code: "A", Qty: 1, UnitPrice: 15}}, 15, 17},
		{"Below half rounds down", []PricedLine{{Code: "A", Qty: 1, UnitPrice: 4}}, 4, 4},
		{
			"Tax applies to the grand total, not per line",
			[]PricedLine{
				{Code: "A", Qty: 1, UnitPrice: 5},
				{Code: "B", Qty: 1, UnitPrice: 5},
			},
			10, 11,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			totals := ComputeTotals(tc.lines)

			assert.Equal(t, tc.expectExTax, totals.ExTax.IntPart())
			assert.Equal(t, tc.expectIncTax, totals.IncTax.IntPart())
			assert.True(t, totals.IncTax.Equal(totals.IncTax.Round(0)), "tax-inclusive total is a whole amount")
		})
	}
}

// The tax-inclusive total must match round_half_up(ex * 1.10), which for a
// non-negative integer ex is (ex*11 + 5) / 10 in integer arithmetic.
func TestComputeTotalsRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(20251018))

	for i := 0; i < 2000; i++ {
		n := 1 + rng.Intn(30)
		lines := make([]PricedLine, n)
		var exTax int64
		for j := range lines {
			price := rng.Int63n(200000)
			qty := 1 + rng.Intn(99)
			lines[j] = PricedLine{Code: "P", Qty: qty, UnitPrice: price}
			exTax += price * int64(qty)
		}

		totals := ComputeTotals(lines)

		if !assert.Equal(t, exTax, totals.ExTax.IntPart()) {
			return
		}
		if !assert.Equal(t, (exTax*11+5)/10, totals.IncTax.IntPart(), "lines: %+v", lines) {
			return
		}
	}
}
