// Package stockledger computes stock deltas for order lifecycle events.
// All functions are pure; applying deltas and persisting is the caller's
// job.
package stockledger

import (
	"time"

	"salesdesk/backend/internal/domain"
)

// Matches the tolerance used when pricing fractional quantities.
const epsilon = 1e-6

// OnCreate returns the per-product stock deltas for a new order:
// every item consumes its quantity.
func OnCreate(order domain.Order) map[string]float64 {
	deltas := make(map[string]float64, len(order.Items))
	for _, item := range order.Items {
		deltas[item.ProductID] -= item.Quantity
	}
	return deltas
}

// OnEdit diffs two versions of an order. For every product appearing in
// either version, delta = old quantities returned minus new quantities
// consumed. Net-zero entries are kept so callers can still refresh
// last-ordered timestamps via Touched.
func OnEdit(oldOrder domain.Order, newOrder domain.Order) map[string]float64 {
	deltas := make(map[string]float64)
	for _, item := range oldOrder.Items {
		deltas[item.ProductID] += item.Quantity
	}
	for _, item := range newOrder.Items {
		deltas[item.ProductID] -= item.Quantity
	}
	return deltas
}

// OnDelete returns every item's quantity to stock.
func OnDelete(order domain.Order) map[string]float64 {
	deltas := make(map[string]float64, len(order.Items))
	for _, item := range order.Items {
		deltas[item.ProductID] += item.Quantity
	}
	return deltas
}

// Touched reports the products present in the order's current item set.
// A quantity-neutral edit still counts as ordering activity.
func Touched(order domain.Order) map[string]bool {
	touched := make(map[string]bool, len(order.Items))
	for _, item := range order.Items {
		touched[item.ProductID] = true
	}
	return touched
}

// Apply mutates a product's stock by delta and re-derives the inactive
// flag. Inactive is not independently settable on products; it always
// tracks stock <= 0. When touch is true the last-ordered timestamp is set.
func Apply(product domain.Product, delta float64, now time.Time, touch bool) domain.Product {
	product.Stock += delta
	product.Inactive = product.Stock <= 0
	if touch {
		t := now
		product.LastOrdered = &t
	}
	return product
}

// Availability is the result of an add-item stock check.
type Availability struct {
	OK        bool
	Available float64
}

// CheckAvailability validates adding `requested` units of a product to an
// order already carrying `currentQty` of it. Edits and deletions of
// existing orders deliberately skip this check; only the add-item flow
// guards against overselling.
func CheckAvailability(product domain.Product, currentQty float64, requested float64) Availability {
	if currentQty+requested > product.Stock+epsilon {
		return Availability{OK: false, Available: product.Stock}
	}
	return Availability{OK: true, Available: product.Stock}
}
