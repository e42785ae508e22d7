// internal/domain/cart/pricing.go
package cart

import "math"

// DefaultTaxRate is the fixed storefront tax rate.
const DefaultTaxRate = 0.05

// Totals is the derived pricing summary of a cart state.
// All amounts are in minor currency units.
type Totals struct {
	TotalItems int   `json:"totalItems"`
	Subtotal   int64 `json:"subtotal"`
	Tax        int64 `json:"tax"`
	Shipping   int64 `json:"shipping"`
	Discount   int64 `json:"discount"`
	Total      int64 `json:"total"`
}

// ComputeTotals derives totals from current items + promo + shipping inputs.
// Pure: no side effects, no I/O.
//
//	totalItems = Σ quantity
//	subtotal   = Σ (priceAtAdd × quantity)
//	tax        = round(subtotal × taxRate)
//	total      = max(0, subtotal + tax + shipping − discount)
func ComputeTotals(items []Item, taxRate float64, shipping, discount int64) Totals {
	t := Totals{
		Shipping: shipping,
		Discount: discount,
	}
	for _, it := range items {
		t.TotalItems += it.Quantity
		t.Subtotal += it.PriceAtAdd * int64(it.Quantity)
	}
	t.Tax = int64(math.Round(float64(t.Subtotal) * taxRate))

	total := t.Subtotal + t.Tax + t.Shipping - t.Discount
	if total < 0 {
		total = 0
	}
	t.Total = total
	return t
}
