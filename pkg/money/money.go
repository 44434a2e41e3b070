// Package money holds the pure monetary arithmetic for orders and payouts.
// Every amount is an integer number of minor currency units (pence); rates are
// carried as decimals and only ever multiplied against integer amounts, so no
// float representation of money exists anywhere in the module.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/platebite/platebite-backend/pkg/config"
	"github.com/platebite/platebite-backend/pkg/enums"
)

// LineItem is the minimal shape the engine needs from an order line.
type LineItem struct {
	UnitPricePence int64
	Qty            int
}

// Rates is the fee schedule applied to every order and payout computation.
type Rates struct {
	ServiceFee         decimal.Decimal
	PlatformCommission decimal.Decimal
	Processor          decimal.Decimal
	ProcessorFixed     int64
	DeliveryFlat       int64
}

// RatesFromConfig parses the configured decimal strings into a Rates value.
func RatesFromConfig(cfg config.FeesConfig) (Rates, error) {
	service, err := decimal.NewFromString(cfg.ServiceFeeRate)
	if err != nil {
		return Rates{}, fmt.Errorf("parsing service fee rate: %w", err)
	}
	commission, err := decimal.NewFromString(cfg.PlatformCommissionRate)
	if err != nil {
		return Rates{}, fmt.Errorf("parsing commission rate: %w", err)
	}
	processor, err := decimal.NewFromString(cfg.ProcessorRate)
	if err != nil {
		return Rates{}, fmt.Errorf("parsing processor rate: %w", err)
	}
	return Rates{
		ServiceFee:         service,
		PlatformCommission: commission,
		Processor:          processor,
		ProcessorFixed:     cfg.ProcessorFixedPence,
		DeliveryFlat:       cfg.DeliveryFlatPence,
	}, nil
}

// Subtotal sums unit price times quantity across items. Empty orders are
// rejected upstream, not here.
func Subtotal(items []LineItem) int64 {
	var sum int64
	for _, item := range items {
		sum += item.UnitPricePence * int64(item.Qty)
	}
	return sum
}

// ServiceFee charges the customer a percentage of the subtotal, rounded
// half-up to the nearest pence. Ties round up to match the price customers
// see, not banker's rounding.
func ServiceFee(subtotalPence int64, rate decimal.Decimal) int64 {
	return roundHalfUp(decimal.NewFromInt(subtotalPence).Mul(rate))
}

// DeliveryFee is the flat charge for delivery orders; collection is free.
func DeliveryFee(fulfilment enums.FulfilmentType, flatFeePence int64) int64 {
	if fulfilment == enums.FulfilmentTypeDelivery {
		return flatFeePence
	}
	return 0
}

// Total combines the customer-facing lines, clamped at zero so a discount can
// never produce a negative charge.
func Total(subtotalPence, serviceFeePence, deliveryFeePence, discountPence int64) int64 {
	total := subtotalPence + serviceFeePence + deliveryFeePence - discountPence
	if total < 0 {
		return 0
	}
	return total
}

// PlatformCommission is the marketplace's cut, deducted from the vendor side
// and computed from subtotal only.
func PlatformCommission(subtotalPence int64, rate decimal.Decimal) int64 {
	return roundHalfUp(decimal.NewFromInt(subtotalPence).Mul(rate))
}

// ProcessorFee is the payment processor's transaction cost, also a vendor-side
// deduction on subtotal.
func ProcessorFee(subtotalPence int64, rate decimal.Decimal, fixedFeePence int64) int64 {
	return roundHalfUp(decimal.NewFromInt(subtotalPence).Mul(rate)) + fixedFeePence
}

// NetPayout is what the vendor receives. It can go negative under pathological
// fee configurations; callers must treat that as a reportable anomaly rather
// than clamping it away.
func NetPayout(subtotalPence, platformCommissionPence, processorFeePence int64) int64 {
	return subtotalPence - platformCommissionPence - processorFeePence
}

func roundHalfUp(d decimal.Decimal) int64 {
	// decimal.Round is half away from zero, which equals half-up for the
	// non-negative amounts produced here.
	return d.Round(0).IntPart()
}
