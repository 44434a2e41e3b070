package money

import "github.com/platebite/platebite-backend/pkg/enums"

// Breakdown is the customer-facing monetary decomposition of one order.
type Breakdown struct {
	SubtotalPence    int64
	ServiceFeePence  int64
	DeliveryFeePence int64
	DiscountPence    int64
	TotalPence       int64
}

// Compute derives the full breakdown for a set of line items. The discount is
// resolved separately (promo resolver) and passed in; it is capped at subtotal
// by the resolver, so the invariant discount <= subtotal holds on entry.
func Compute(items []LineItem, fulfilment enums.FulfilmentType, discountPence int64, rates Rates) Breakdown {
	subtotal := Subtotal(items)
	serviceFee := ServiceFee(subtotal, rates.ServiceFee)
	deliveryFee := DeliveryFee(fulfilment, rates.DeliveryFlat)
	return Breakdown{
		SubtotalPence:    subtotal,
		ServiceFeePence:  serviceFee,
		DeliveryFeePence: deliveryFee,
		DiscountPence:    discountPence,
		TotalPence:       Total(subtotal, serviceFee, deliveryFee, discountPence),
	}
}

// VendorShare is the vendor-side view of a paid order.
type VendorShare struct {
	GrossPence      int64
	CommissionPence int64
	ProcessorPence  int64
	NetPence        int64
}

// ComputeVendorShare derives the payout lines for one order subtotal.
func ComputeVendorShare(subtotalPence int64, rates Rates) VendorShare {
	commission := PlatformCommission(subtotalPence, rates.PlatformCommission)
	processor := ProcessorFee(subtotalPence, rates.Processor, rates.ProcessorFixed)
	return VendorShare{
		GrossPence:      subtotalPence,
		CommissionPence: commission,
		ProcessorPence:  processor,
		NetPence:        NetPayout(subtotalPence, commission, processor),
	}
}
