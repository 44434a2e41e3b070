package money

import "github.com/shopspring/decimal"

// PercentageDiscount computes percent% of the subtotal, rounded half-up.
func PercentageDiscount(subtotalPence, percent int64) int64 {
	d := decimal.NewFromInt(subtotalPence).
		Mul(decimal.NewFromInt(percent)).
		Div(decimal.NewFromInt(100))
	return roundHalfUp(d)
}

// CapDiscount bounds a discount to the subtotal so a fixed voucher can never
// push the order value negative.
func CapDiscount(discountPence, subtotalPence int64) int64 {
	if discountPence < 0 {
		return 0
	}
	if discountPence > subtotalPence {
		return subtotalPence
	}
	return discountPence
}
