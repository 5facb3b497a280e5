package report

import (
	"testing"
	"time"

	"salesdesk/backend/internal/domain"
)

func order(clientID, date string, total, paid, discount float64) domain.Order {
	return domain.Order{
		ClientID:   clientID,
		Date:       date,
		Total:      total,
		AmountPaid: paid,
		Discount:   domain.OrderAdjustment{Amount: discount},
	}
}

func TestPerClient(t *testing.T) {
	orders := []domain.Order{
		order("c1", "2026-08-01", 100, 100, 10),
		order("c1", "2026-08-10", 50, 20, 0),
		order("c2", "2026-08-11", 80, 0, 5),
	}

	stats := PerClient(orders, "c1")
	if stats.OrderCount != 2 {
		t.Fatalf("expected 2 orders, got %d", stats.OrderCount)
	}
	if stats.TotalSpent != 150 {
		t.Fatalf("expected 150 spent, got %v", stats.TotalSpent)
	}
	if stats.Balance != 30 {
		t.Fatalf("expected balance 30, got %v", stats.Balance)
	}
	if stats.TotalDiscounts != 10 {
		t.Fatalf("expected discounts 10, got %v", stats.TotalDiscounts)
	}
}

func TestPerProductUsesCurrentCost(t *testing.T) {
	product := domain.Product{ID: "p1", CostPerUnit: 10}
	orders := []domain.Order{
		{Items: []domain.OrderItem{
			{ProductID: "p1", Quantity: 2, Price: 60},
			{ProductID: "p2", Quantity: 1, Price: 99},
		}},
		{Items: []domain.OrderItem{{ProductID: "p1", Quantity: 3, Price: 80}}},
	}

	stats := PerProduct(orders, product)
	if stats.UnitsSold != 5 {
		t.Fatalf("expected 5 units, got %v", stats.UnitsSold)
	}
	if stats.TotalSales != 140 {
		t.Fatalf("expected sales 140, got %v", stats.TotalSales)
	}
	if stats.TotalCost != 50 {
		t.Fatalf("expected cost 50, got %v", stats.TotalCost)
	}
	if stats.NetProfit != 90 {
		t.Fatalf("expected profit 90, got %v", stats.NetProfit)
	}
	want := 90.0 / 140.0 * 100
	if stats.Margin != want {
		t.Fatalf("expected margin %v, got %v", want, stats.Margin)
	}
}

func TestPerProductZeroSalesHasZeroMargin(t *testing.T) {
	stats := PerProduct(nil, domain.Product{ID: "p1", CostPerUnit: 10})
	if stats.Margin != 0 {
		t.Fatalf("expected margin 0 with no sales, got %v", stats.Margin)
	}
}

func TestDashboardTotalsWindows(t *testing.T) {
	// 2026-08-28 is a Friday; the week window opens Sunday 2026-08-23.
	today := time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC)
	orders := []domain.Order{
		order("c1", "2026-08-28", 100, 100, 0), // today
		order("c1", "2026-08-24", 50, 50, 0),   // this week
		order("c1", "2026-08-22", 40, 0, 0),    // this month, before Sunday
		order("c1", "2026-07-30", 500, 500, 0), // last month
	}

	stats := DashboardTotals(orders, nil, today)
	if stats.SalesToday != 100 {
		t.Fatalf("expected today 100, got %v", stats.SalesToday)
	}
	if stats.SalesThisWeek != 150 {
		t.Fatalf("expected week 150, got %v", stats.SalesThisWeek)
	}
	if stats.SalesThisMonth != 190 {
		t.Fatalf("expected month 190, got %v", stats.SalesThisMonth)
	}
	if stats.OutstandingDebt != 40 {
		t.Fatalf("expected debt 40, got %v", stats.OutstandingDebt)
	}
	if stats.UnpaidOrderCount != 1 {
		t.Fatalf("expected 1 unpaid, got %d", stats.UnpaidOrderCount)
	}
}

func TestDashboardInventoryValuation(t *testing.T) {
	products := []domain.Product{
		{ID: "p1", Stock: 10, CostPerUnit: 5, Tiers: []domain.ProductTier{
			{SizeLabel: "1g", Quantity: 1, Price: 40},
			{SizeLabel: "7g", Quantity: 7, Price: 200},
		}},
		{ID: "p2", Stock: 0, CostPerUnit: 3, Inactive: true},
	}

	stats := DashboardTotals(nil, products, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC))
	if stats.InventoryRetailValue != 400 {
		t.Fatalf("expected retail value 400 (smallest-tier rate), got %v", stats.InventoryRetailValue)
	}
	if stats.InventoryCost != 50 {
		t.Fatalf("expected cost 50, got %v", stats.InventoryCost)
	}
}

func TestMonthlySales(t *testing.T) {
	orders := []domain.Order{
		order("c1", "2026-07-10", 100, 0, 0),
		order("c1", "2026-08-01", 40, 0, 0),
		order("c1", "2026-08-15", 60, 0, 0),
	}
	points := MonthlySales(orders)
	if len(points) != 2 {
		t.Fatalf("expected 2 months, got %d", len(points))
	}
	if points[0].Month != "2026-07" || points[0].Total != 100 {
		t.Fatalf("unexpected first point: %+v", points[0])
	}
	if points[1].Month != "2026-08" || points[1].Total != 100 {
		t.Fatalf("unexpected second point: %+v", points[1])
	}
}

func TestExpenseByCategory(t *testing.T) {
	expenses := []domain.Expense{
		{Category: "Inventory", Amount: 120},
		{Category: "", Amount: 30},
		{Category: "Inventory", Amount: 80},
	}
	out := ExpenseByCategory(expenses)
	if len(out) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(out))
	}
	if out[0].Category != "Inventory" || out[0].Total != 200 {
		t.Fatalf("unexpected leader: %+v", out[0])
	}
	if out[1].Category != "Other" || out[1].Total != 30 {
		t.Fatalf("unexpected second: %+v", out[1])
	}
}

func TestTopClients(t *testing.T) {
	clients := []domain.Client{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}
	orders := []domain.Order{
		order("c1", "2026-08-01", 100, 0, 0),
		order("c2", "2026-08-01", 300, 0, 0),
	}
	top := TopClients(orders, clients, 1)
	if len(top) != 1 || top[0].ClientID != "c2" {
		t.Fatalf("unexpected top clients: %+v", top)
	}
}

func TestSalesByProduct(t *testing.T) {
	products := []domain.Product{{ID: "p1", Name: "A"}, {ID: "p2", Name: "B"}, {ID: "p3", Name: "C"}}
	orders := []domain.Order{
		{Items: []domain.OrderItem{
			{ProductID: "p1", Quantity: 1, Price: 40},
			{ProductID: "p2", Quantity: 1, Price: 100},
		}},
		{Items: []domain.OrderItem{{ProductID: "p1", Quantity: 1, Price: 20}}},
	}
	out := SalesByProduct(orders, products)
	if len(out) != 2 {
		t.Fatalf("expected 2 products with sales, got %d", len(out))
	}
	if out[0].ProductID != "p2" || out[0].Total != 100 {
		t.Fatalf("unexpected leader: %+v", out[0])
	}
	if out[1].ProductID != "p1" || out[1].Total != 60 {
		t.Fatalf("unexpected second: %+v", out[1])
	}
}

func TestReceivables(t *testing.T) {
	clients := []domain.Client{{ID: "c1", Name: "Ada"}, {ID: "c2", Name: "Grace"}}
	overdue := order("c1", "2026-08-10", 100, 40, 0)
	overdue.DisplayID = 1
	overdue.PaymentDueDate = "2026-08-25"
	soon := order("c2", "2026-08-20", 50, 0, 0)
	soon.DisplayID = 2
	soon.PaymentDueDate = "2026-08-30"
	unscheduled := order("c1", "2026-08-21", 30, 10, 0)
	unscheduled.DisplayID = 3
	settled := order("c2", "2026-08-22", 70, 70, 0)
	settled.DisplayID = 4

	today := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	out := Receivables([]domain.Order{soon, settled, unscheduled, overdue}, clients, today)

	if len(out) != 3 {
		t.Fatalf("expected 3 receivables, got %d", len(out))
	}
	if out[0].DisplayID != 1 || out[0].DueState != "overdue" || out[0].DaysDelta != -3 {
		t.Fatalf("expected the overdue order first, got %+v", out[0])
	}
	if out[0].Balance != 60 || out[0].ClientName != "Ada" {
		t.Fatalf("unexpected balance or name: %+v", out[0])
	}
	if out[1].DisplayID != 2 || out[1].DueState != "due-soon" {
		t.Fatalf("expected the scheduled order second, got %+v", out[1])
	}
	if out[2].DisplayID != 3 || out[2].DueState != "due-later" {
		t.Fatalf("expected the unscheduled balance last, got %+v", out[2])
	}
}
