package core

import "github.com/shopspring/decimal"

// DiscountRate is the cash ("à vista") discount applied to the subtotal.
var DiscountRate = decimal.New(10, -2)

// BudgetSummary aggregates a set of line items. It is always derived from the
// live items and never stored.
type BudgetSummary struct {
	Subtotal     decimal.Decimal
	DiscountRate decimal.Decimal
	DiscountCash decimal.Decimal
	Total        decimal.Decimal // grand total shown before the cash discount
	NetCashTotal decimal.Decimal // promoted "pay now" price
	ItemCount    int
}

// LineTotal returns quantity times unit price.
func LineTotal(item LineItem) decimal.Decimal {
	return item.Quantity.Mul(item.UnitPrice)
}

// Total is a convenience alias for LineTotal(i).
func (i LineItem) Total() decimal.Decimal {
	return LineTotal(i)
}

// Summarize computes the quote totals in a single pass. Decimal addition is
// exact, so the result does not depend on item order.
func Summarize(items []LineItem) BudgetSummary {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(LineTotal(it))
	}
	discount := subtotal.Mul(DiscountRate)
	return BudgetSummary{
		Subtotal:     subtotal,
		DiscountRate: DiscountRate,
		DiscountCash: discount,
		Total:        subtotal,
		NetCashTotal: subtotal.Sub(discount),
		ItemCount:    len(items),
	}
}
