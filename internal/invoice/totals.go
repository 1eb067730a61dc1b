package invoice

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/domain"
)

// TotalsTolerance is the largest gap between totalBeforeTax + totalTax and
// totalAmount still treated as consistent.
const TotalsTolerance = 0.05

// Consistent reports whether the header totals add up.
func Consistent(inv domain.Invoice) bool {
	return math.Abs(inv.TotalBeforeTax+inv.TotalTax-inv.TotalAmount) <= TotalsTolerance
}

// ReconcileTotals fills missing header totals. When every header total is
// zero they are rebuilt from the line items; a missing totalAmount becomes
// totalBeforeTax + totalTax; a missing totalBeforeTax becomes
// totalAmount - totalTax.
func ReconcileTotals(inv domain.Invoice) domain.Invoice {
	if inv.TotalBeforeTax == 0 && inv.TotalTax == 0 && inv.TotalAmount == 0 && len(inv.LineItems) > 0 {
		inv.TotalBeforeTax, inv.TotalTax, inv.TotalAmount = sumLineItems(inv.LineItems)
	}

	if inv.TotalAmount == 0 && !Consistent(inv) {
		inv.TotalAmount = round2(inv.TotalBeforeTax + inv.TotalTax)
	}
	if inv.TotalBeforeTax == 0 && inv.TotalAmount != 0 {
		inv.TotalBeforeTax = round2(inv.TotalAmount - inv.TotalTax)
	}
	return inv
}

func sumLineItems(items []domain.LineItem) (beforeTax, tax, total float64) {
	b, tx, tot := decimal.Zero, decimal.Zero, decimal.Zero
	for _, it := range items {
		sub := decimal.NewFromFloat(it.Subtotal)
		if it.Subtotal == 0 {
			sub = decimal.NewFromFloat(it.Quantity).Mul(decimal.NewFromFloat(it.UnitPrice))
		}
		lineTax := decimal.NewFromFloat(it.Tax)
		lineTotal := decimal.NewFromFloat(it.Total)
		if it.Total == 0 {
			lineTotal = sub.Add(lineTax)
		}
		b = b.Add(sub)
		tx = tx.Add(lineTax)
		tot = tot.Add(lineTotal)
	}
	return b.Round(2).InexactFloat64(), tx.Round(2).InexactFloat64(), tot.Round(2).InexactFloat64()
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
