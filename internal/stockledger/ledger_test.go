package stockledger

import (
	"testing"
	"time"

	"salesdesk/backend/internal/domain"
)

func orderWith(items ...domain.OrderItem) domain.Order {
	return domain.Order{ID: "o1", Items: items}
}

func TestOnCreateConsumesStock(t *testing.T) {
	order := orderWith(
		domain.OrderItem{ProductID: "p1", Quantity: 3.5},
		domain.OrderItem{ProductID: "p1", Quantity: 1},
		domain.OrderItem{ProductID: "p2", Quantity: 2},
	)
	deltas := OnCreate(order)
	if deltas["p1"] != -4.5 || deltas["p2"] != -2 {
		t.Fatalf("unexpected deltas: %v", deltas)
	}
}

func TestOnEditDiffsBothVersions(t *testing.T) {
	oldOrder := orderWith(
		domain.OrderItem{ProductID: "p1", Quantity: 30},
		domain.OrderItem{ProductID: "p2", Quantity: 5},
	)
	newOrder := orderWith(
		domain.OrderItem{ProductID: "p1", Quantity: 10},
		domain.OrderItem{ProductID: "p3", Quantity: 2},
	)
	deltas := OnEdit(oldOrder, newOrder)
	if deltas["p1"] != 20 {
		t.Fatalf("expected p1 +20, got %v", deltas["p1"])
	}
	if deltas["p2"] != 5 {
		t.Fatalf("expected p2 fully returned, got %v", deltas["p2"])
	}
	if deltas["p3"] != -2 {
		t.Fatalf("expected p3 -2, got %v", deltas["p3"])
	}
}

func TestOnEditNetZeroStillTouches(t *testing.T) {
	order := orderWith(domain.OrderItem{ProductID: "p1", Quantity: 7})
	deltas := OnEdit(order, order)
	if deltas["p1"] != 0 {
		t.Fatalf("expected net-zero delta, got %v", deltas["p1"])
	}
	if !Touched(order)["p1"] {
		t.Fatalf("expected p1 touched")
	}
}

func TestEditThenRevertIsNetZero(t *testing.T) {
	original := orderWith(domain.OrderItem{ProductID: "p1", Quantity: 30})
	edited := orderWith(domain.OrderItem{ProductID: "p1", Quantity: 10})

	net := OnEdit(original, edited)["p1"] + OnEdit(edited, original)["p1"]
	if net != 0 {
		t.Fatalf("edit-then-revert must be net zero, got %v", net)
	}
}

func TestOrderLifecycleStockScenario(t *testing.T) {
	now := time.Now()
	product := domain.Product{ID: "p1", Stock: 100}

	orderA := orderWith(domain.OrderItem{ProductID: "p1", Quantity: 30})
	product = Apply(product, OnCreate(orderA)["p1"], now, true)
	if product.Stock != 70 {
		t.Fatalf("after create: expected 70, got %v", product.Stock)
	}

	edited := orderWith(domain.OrderItem{ProductID: "p1", Quantity: 10})
	product = Apply(product, OnEdit(orderA, edited)["p1"], now, true)
	if product.Stock != 90 {
		t.Fatalf("after edit: expected 90, got %v", product.Stock)
	}

	product = Apply(product, OnDelete(edited)["p1"], now, false)
	if product.Stock != 100 {
		t.Fatalf("after delete: expected 100, got %v", product.Stock)
	}
	if product.LastOrdered == nil {
		t.Fatalf("expected last-ordered timestamp set")
	}
}

func TestApplyDerivesInactive(t *testing.T) {
	product := domain.Product{ID: "p1", Stock: 2}
	product = Apply(product, -2, time.Now(), true)
	if !product.Inactive {
		t.Fatalf("expected inactive at zero stock")
	}
	product = Apply(product, 5, time.Now(), false)
	if product.Inactive {
		t.Fatalf("expected active after restock")
	}
}

func TestCheckAvailability(t *testing.T) {
	product := domain.Product{ID: "p1", Stock: 10}

	if res := CheckAvailability(product, 4, 6); !res.OK {
		t.Fatalf("expected exact fit to pass")
	}
	res := CheckAvailability(product, 4, 6.5)
	if res.OK {
		t.Fatalf("expected oversell to be rejected")
	}
	if res.Available != 10 {
		t.Fatalf("expected available 10, got %v", res.Available)
	}
	// Float noise within tolerance is accepted.
	if res := CheckAvailability(product, 0, 10+1e-9); !res.OK {
		t.Fatalf("expected epsilon tolerance to pass")
	}
}
