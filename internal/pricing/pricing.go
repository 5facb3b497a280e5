// Package pricing computes order line totals from a product's tier
// schedule using greedy largest-tier-first decomposition.
package pricing

import (
	"math"
	"slices"

	"salesdesk/backend/internal/domain"
)

// epsilon absorbs floating point noise in fractional quantities
// (grams and milliliters are entered with decimals).
const epsilon = 1e-6

// Price returns the total for the requested quantity. Tiers with
// non-positive quantity or price are ignored. When no usable tier exists
// the price is fallbackPerUnit times the quantity, or 0 without a positive
// fallback. Quantity must be finite and positive, else the result is 0;
// callers treat 0 as "cannot price yet", never as an error.
func Price(tiers []domain.ProductTier, quantity float64, fallbackPerUnit float64) float64 {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity <= 0 {
		return 0
	}

	valid := make([]domain.ProductTier, 0, len(tiers))
	for _, tier := range tiers {
		if tier.Quantity > 0 && tier.Price > 0 {
			valid = append(valid, tier)
		}
	}

	if len(valid) == 0 {
		if fallbackPerUnit > 0 {
			return round2(fallbackPerUnit * quantity)
		}
		return 0
	}

	slices.SortFunc(valid, func(a, b domain.ProductTier) int {
		switch {
		case a.Quantity > b.Quantity:
			return -1
		case a.Quantity < b.Quantity:
			return 1
		default:
			return 0
		}
	})

	total := 0.0
	remaining := quantity
	for _, tier := range valid {
		if remaining+epsilon < tier.Quantity {
			continue
		}
		count := math.Floor((remaining + epsilon) / tier.Quantity)
		total += count * tier.Price
		remaining -= count * tier.Quantity
	}

	// Leftover below the smallest tier is priced at that tier's implied
	// per-unit rate rather than interpolating between tiers.
	if remaining > epsilon {
		smallest := valid[len(valid)-1]
		total += (smallest.Price / smallest.Quantity) * remaining
	}

	return round2(total)
}

// UnitRate returns the smallest valid tier's implied per-unit rate, used
// for inventory retail valuation. 0 when no tier is usable.
func UnitRate(tiers []domain.ProductTier) float64 {
	rate := 0.0
	bestQty := math.Inf(1)
	for _, tier := range tiers {
		if tier.Quantity > 0 && tier.Price > 0 && tier.Quantity < bestQty {
			bestQty = tier.Quantity
			rate = tier.Price / tier.Quantity
		}
	}
	return rate
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
