// Package payment reconciles multi-method payments against order totals
// and derives order status and due-date state.
package payment

import (
	"math"
	"time"

	"salesdesk/backend/internal/domain"
)

const (
	MethodCash      = "cash"
	MethodEtransfer = "etransfer"
)

type DueState string

const (
	DuePaid  DueState = "paid"
	Overdue  DueState = "overdue"
	DueToday DueState = "due-today"
	DueSoon  DueState = "due-soon"
	DueLater DueState = "due-later"
)

// Recalculate recomputes the derived order fields from the authoritative
// ones. Every mutation path (create, edit, payment) goes through here, so
// total/status/due-date handling lives in exactly one place.
//
// Totals keep cents; amountPaid and the status comparison round to whole
// currency units. A sub-cent fragment can therefore flip status when the
// paid amount rounds up, which is accepted behavior.
func Recalculate(order domain.Order) domain.Order {
	itemTotal := 0.0
	for _, item := range order.Items {
		itemTotal += item.Price
	}
	order.Total = round2(itemTotal + order.Fees.Amount - order.Discount.Amount)
	order.AmountPaid = math.Round(order.PaymentMethods.Cash + order.PaymentMethods.Etransfer)

	if order.AmountPaid >= math.Round(order.Total) {
		order.Status = domain.OrderStatusCompleted
		order.PaymentDueDate = ""
		order.PaymentMethods.DueDate = ""
	} else {
		order.Status = domain.OrderStatusUnpaid
	}
	return order
}

// Apply records a payment through the guided flow. The amount is clamped
// to the remaining balance, so overpayment is silently truncated rather
// than rejected.
func Apply(order domain.Order, method string, amount float64) domain.Order {
	remaining := order.Total - order.AmountPaid
	if remaining < 0 {
		remaining = 0
	}
	delta := math.Round(math.Min(math.Max(0, amount), remaining))

	switch method {
	case MethodEtransfer:
		order.PaymentMethods.Etransfer += delta
	default:
		order.PaymentMethods.Cash += delta
	}
	return Recalculate(order)
}

// SetBreakdown overwrites the payment breakdown without clamping. Editors
// may intentionally record an overpayment, which surfaces as change due.
func SetBreakdown(order domain.Order, cash float64, etransfer float64) domain.Order {
	order.PaymentMethods.Cash = cash
	order.PaymentMethods.Etransfer = etransfer
	return Recalculate(order)
}

// DueStateFor classifies an order's due date against today at day
// granularity. A settled order is always DuePaid regardless of any stale
// due date on the record.
func DueStateFor(order domain.Order, today time.Time) (DueState, int) {
	if order.Total-order.AmountPaid <= 0 {
		return DuePaid, 0
	}
	due := order.PaymentDueDate
	if due == "" {
		due = order.PaymentMethods.DueDate
	}
	if due == "" {
		return DueLater, 0
	}
	dueDay, err := time.ParseInLocation("2006-01-02", due, today.Location())
	if err != nil {
		return DueLater, 0
	}

	y, m, d := today.Date()
	todayDay := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	days := int(dueDay.Sub(todayDay).Hours() / 24)

	switch {
	case days < 0:
		return Overdue, days
	case days == 0:
		return DueToday, 0
	case days <= 3:
		return DueSoon, days
	default:
		return DueLater, days
	}
}

// MigrateLegacy normalizes records whose payment methods were stored as
// boolean flags instead of amounts: the flat amountPaid is attributed to
// the flagged channel (cash when both or neither were flagged). Returns
// the normalized order and whether anything changed.
func MigrateLegacy(order domain.Order) (domain.Order, bool) {
	pm := &order.PaymentMethods
	if !pm.LegacyCashFlag && !pm.LegacyEtransferFlag {
		return order, false
	}
	paid := math.Round(order.AmountPaid)
	if pm.LegacyEtransferFlag && !pm.LegacyCashFlag {
		pm.Etransfer = paid
	} else {
		pm.Cash = paid
	}
	pm.LegacyCashFlag = false
	pm.LegacyEtransferFlag = false
	return Recalculate(order), true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
