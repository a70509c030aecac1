// Package pricing resolves the effective unit price and cost for a cart line.
//
// Priority order for the sale price of one selling unit:
//
//  1. VIP price, when the customer on the cart is VIP. The USD VIP price
//     converted at the current rate wins over the local VIP price. VIP prices
//     are quoted per base unit and scale by the unit factor.
//  2. The conversion's own price override, taken verbatim (already per
//     selling unit).
//  3. The base sale price, USD converted at the current rate when a USD price
//     exists, otherwise the local price, scaled by the unit factor.
package pricing

import (
	"math"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/customer"
	"github.com/noah-isme/backend-kasir/internal/uom"
)

// Money is an amount in minor units of the ledger currency.
type Money = int64

// RoundMul multiplies a money amount by a float factor and rounds half away
// from zero back to minor units.
func RoundMul(m Money, f float64) Money {
	v := float64(m) * f
	if v >= 0 {
		return Money(math.Floor(v + 0.5))
	}
	return Money(math.Ceil(v - 0.5))
}

// FromUSD converts a USD amount to ledger minor units at the given rate.
func FromUSD(usd float64, rate float64) Money {
	v := usd * rate
	if v >= 0 {
		return Money(math.Floor(v + 0.5))
	}
	return Money(math.Ceil(v - 0.5))
}

// ResolveUnitPrice returns the effective price for one selling unit of p in
// the resolved selection, for the given customer (nil for walk-in).
func ResolveUnitPrice(p catalog.Product, sel uom.Selection, cust *customer.Customer, rate float64) Money {
	if cust != nil && cust.IsVIP() {
		if p.VIPPriceUSD != nil && *p.VIPPriceUSD > 0 && rate > 0 {
			return RoundMul(FromUSD(*p.VIPPriceUSD, rate), sel.Factor)
		}
		if p.VIPPrice != nil && *p.VIPPrice > 0 {
			return RoundMul(*p.VIPPrice, sel.Factor)
		}
	}
	if sel.OverridePrice != nil && *sel.OverridePrice > 0 {
		return *sel.OverridePrice
	}
	base := p.SalePrice
	if p.SalePriceUSD != nil && *p.SalePriceUSD > 0 && rate > 0 {
		base = FromUSD(*p.SalePriceUSD, rate)
	}
	return RoundMul(base, sel.Factor)
}

// ResolveCostPrice returns the cost of one base unit of p. Cost never has a
// VIP variant; USD cost converted at the current rate wins over local cost.
func ResolveCostPrice(p catalog.Product, rate float64) Money {
	if p.CostPriceUSD != nil && *p.CostPriceUSD > 0 && rate > 0 {
		return FromUSD(*p.CostPriceUSD, rate)
	}
	return p.CostPrice
}
