// Package report derives the list and dashboard rollups. Everything here
// is a pure projection over the full collections, recomputed on every
// read; nothing is cached at this layer.
package report

import (
	"slices"
	"time"

	"salesdesk/backend/internal/domain"
	"salesdesk/backend/internal/payment"
	"salesdesk/backend/internal/pricing"
)

const dateLayout = "2006-01-02"

// PerClient aggregates a client's order history. Balances are derived
// from the live order collection, never cached on the client record.
func PerClient(orders []domain.Order, clientID string) domain.ClientStats {
	stats := domain.ClientStats{ClientID: clientID}
	for _, order := range orders {
		if order.ClientID != clientID {
			continue
		}
		stats.OrderCount++
		stats.TotalSpent += order.Total
		stats.Balance += order.Total - order.AmountPaid
		stats.TotalDiscounts += order.Discount.Amount
	}
	return stats
}

// PerProduct computes sales and profitability for one product. Cost uses
// the product's current cost per unit, not the cost at sale time.
func PerProduct(orders []domain.Order, product domain.Product) domain.ProductProfitability {
	stats := domain.ProductProfitability{ProductID: product.ID}
	for _, order := range orders {
		for _, item := range order.Items {
			if item.ProductID != product.ID {
				continue
			}
			stats.UnitsSold += item.Quantity
			stats.TotalSales += item.Price
			stats.TotalCost += item.Quantity * product.CostPerUnit
		}
	}
	stats.NetProfit = stats.TotalSales - stats.TotalCost
	if stats.TotalSales != 0 {
		stats.Margin = stats.NetProfit / stats.TotalSales * 100
	}
	return stats
}

// DashboardTotals computes the headline numbers for a given day. The week
// window starts on Sunday 00:00; the month window on the 1st.
func DashboardTotals(orders []domain.Order, products []domain.Product, today time.Time) domain.DashboardStats {
	stats := domain.DashboardStats{}

	y, m, d := today.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	weekStart := dayStart.AddDate(0, 0, -int(dayStart.Weekday()))
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, today.Location())
	todayStr := dayStart.Format(dateLayout)

	for _, order := range orders {
		if order.Date == todayStr {
			stats.SalesToday += order.Total
		}
		orderDay, err := time.ParseInLocation(dateLayout, order.Date, today.Location())
		if err == nil && !orderDay.Before(weekStart) && !orderDay.After(dayStart) {
			stats.SalesThisWeek += order.Total
		}
		if err == nil && !orderDay.Before(monthStart) && !orderDay.After(dayStart) {
			stats.SalesThisMonth += order.Total
		}

		balance := order.Total - order.AmountPaid
		if balance > 0 {
			stats.OutstandingDebt += balance
			stats.UnpaidOrderCount++
		}
	}

	for _, product := range products {
		if !product.Inactive && product.Stock > 0 {
			stats.InventoryRetailValue += product.Stock * pricing.UnitRate(product.Tiers)
		}
		if product.Stock > 0 {
			stats.InventoryCost += product.Stock * product.CostPerUnit
		}
	}
	return stats
}

// MonthlySales buckets order totals by calendar month, oldest first.
func MonthlySales(orders []domain.Order) []domain.MonthlySalesPoint {
	totals := make(map[string]float64)
	for _, order := range orders {
		if len(order.Date) < 7 {
			continue
		}
		totals[order.Date[:7]] += order.Total
	}

	months := make([]string, 0, len(totals))
	for month := range totals {
		months = append(months, month)
	}
	slices.Sort(months)

	points := make([]domain.MonthlySalesPoint, 0, len(months))
	for _, month := range months {
		points = append(points, domain.MonthlySalesPoint{Month: month, Total: totals[month]})
	}
	return points
}

// ExpenseByCategory sums expenses per category, largest first.
// Uncategorized records fall under "Other".
func ExpenseByCategory(expenses []domain.Expense) []domain.CategoryExpense {
	totals := make(map[string]float64)
	for _, expense := range expenses {
		category := expense.Category
		if category == "" {
			category = "Other"
		}
		totals[category] += expense.Amount
	}

	out := make([]domain.CategoryExpense, 0, len(totals))
	for category, total := range totals {
		out = append(out, domain.CategoryExpense{Category: category, Total: total})
	}
	slices.SortFunc(out, func(a, b domain.CategoryExpense) int {
		switch {
		case a.Total > b.Total:
			return -1
		case a.Total < b.Total:
			return 1
		default:
			return cmpString(a.Category, b.Category)
		}
	})
	return out
}

// TopClients ranks clients by total spent, capped at limit.
func TopClients(orders []domain.Order, clients []domain.Client, limit int) []domain.ClientStats {
	ranked := make([]domain.ClientStats, 0, len(clients))
	for _, client := range clients {
		stats := PerClient(orders, client.ID)
		if stats.OrderCount > 0 {
			ranked = append(ranked, stats)
		}
	}
	slices.SortFunc(ranked, func(a, b domain.ClientStats) int {
		switch {
		case a.TotalSpent > b.TotalSpent:
			return -1
		case a.TotalSpent < b.TotalSpent:
			return 1
		default:
			return cmpString(a.ClientID, b.ClientID)
		}
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// SalesByProduct sums line totals per product, largest first.
func SalesByProduct(orders []domain.Order, products []domain.Product) []domain.ProductSales {
	totals := make(map[string]float64)
	for _, order := range orders {
		for _, item := range order.Items {
			totals[item.ProductID] += item.Price
		}
	}

	out := make([]domain.ProductSales, 0, len(products))
	for _, product := range products {
		total, ok := totals[product.ID]
		if !ok {
			continue
		}
		out = append(out, domain.ProductSales{ProductID: product.ID, Name: product.Name, Total: total})
	}
	slices.SortFunc(out, func(a, b domain.ProductSales) int {
		switch {
		case a.Total > b.Total:
			return -1
		case a.Total < b.Total:
			return 1
		default:
			return cmpString(a.Name, b.Name)
		}
	})
	return out
}

// Receivables lists every order still carrying a balance, classified
// against today's date. Most urgent first: overdue, then by days until
// due, unscheduled balances last.
func Receivables(orders []domain.Order, clients []domain.Client, today time.Time) []domain.Receivable {
	names := make(map[string]string, len(clients))
	for _, client := range clients {
		names[client.ID] = client.Name
	}

	out := make([]domain.Receivable, 0)
	for _, order := range orders {
		balance := order.Total - order.AmountPaid
		if balance <= 0 {
			continue
		}
		state, days := payment.DueStateFor(order, today)
		out = append(out, domain.Receivable{
			OrderID:        order.ID,
			DisplayID:      order.DisplayID,
			ClientID:       order.ClientID,
			ClientName:     names[order.ClientID],
			Total:          order.Total,
			Balance:        balance,
			PaymentDueDate: order.PaymentDueDate,
			DueState:       string(state),
			DaysDelta:      days,
		})
	}
	slices.SortFunc(out, func(a, b domain.Receivable) int {
		aScheduled := a.PaymentDueDate != ""
		bScheduled := b.PaymentDueDate != ""
		switch {
		case aScheduled != bScheduled:
			if aScheduled {
				return -1
			}
			return 1
		case a.DaysDelta != b.DaysDelta:
			return a.DaysDelta - b.DaysDelta
		default:
			return a.DisplayID - b.DisplayID
		}
	})
	return out
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
