package domain

import (
	"encoding/json"
	"time"
)

const (
	ProductTypeGrams       = "grams"
	ProductTypeMilliliters = "milliliters"
	ProductTypeUnit        = "unit"
)

const (
	OrderStatusDraft     = "Draft"
	OrderStatusUnpaid    = "Unpaid"
	OrderStatusCompleted = "Completed"
)

type Client struct {
	ID        string    `json:"id"`
	DisplayID int       `json:"displayId,omitempty"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Inactive  bool      `json:"inactive"`
	CreatedAt time.Time `json:"createdAt"`
}

type ProductTier struct {
	SizeLabel string  `json:"sizeLabel"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
}

type Product struct {
	ID          string        `json:"id"`
	DisplayID   int           `json:"displayId,omitempty"`
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	Stock       float64       `json:"stock"`
	CostPerUnit float64       `json:"costPerUnit"`
	Tiers       []ProductTier `json:"tiers"`
	Inactive    bool          `json:"inactive"`
	LastOrdered *time.Time    `json:"lastOrdered,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// OrderItem.Price is the absolute line total computed once at add time,
// not a unit price. Historical orders stay stable when tier schedules change.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	SizeLabel string  `json:"sizeLabel,omitempty"`
}

type OrderAdjustment struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

// PaymentMethods tracks the per-channel payment breakdown. Records written
// by old versions of the app stored boolean flags instead of amounts; the
// decoder accepts both shapes and MigrateLegacy in the payment package
// resolves flags into amounts using the order's flat amountPaid field.
type PaymentMethods struct {
	Cash      float64 `json:"cash"`
	Etransfer float64 `json:"etransfer"`
	DueDate   string  `json:"dueDate,omitempty"`

	LegacyCashFlag      bool `json:"-"`
	LegacyEtransferFlag bool `json:"-"`
}

func (p *PaymentMethods) UnmarshalJSON(data []byte) error {
	var raw struct {
		Cash      json.RawMessage `json:"cash"`
		Etransfer json.RawMessage `json:"etransfer"`
		DueDate   string          `json:"dueDate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Cash, p.LegacyCashFlag = decodePaymentField(raw.Cash)
	p.Etransfer, p.LegacyEtransferFlag = decodePaymentField(raw.Etransfer)
	p.DueDate = raw.DueDate
	return nil
}

// decodePaymentField reads either the numeric amount or the legacy boolean
// flag shape. Returns the amount and whether the legacy true flag was seen.
func decodePaymentField(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var amount float64
	if err := json.Unmarshal(raw, &amount); err == nil {
		return amount, false
	}
	var flag bool
	if err := json.Unmarshal(raw, &flag); err == nil {
		return 0, flag
	}
	return 0, false
}

type Order struct {
	ID             string          `json:"id"`
	DisplayID      int             `json:"displayId,omitempty"`
	ClientID       string          `json:"clientId"`
	Date           string          `json:"date"`
	Items          []OrderItem     `json:"items"`
	Fees           OrderAdjustment `json:"fees"`
	Discount       OrderAdjustment `json:"discount"`
	Total          float64         `json:"total"`
	AmountPaid     float64         `json:"amountPaid"`
	PaymentMethods PaymentMethods  `json:"paymentMethods"`
	Status         string          `json:"status"`
	PaymentDueDate string          `json:"paymentDueDate,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type Expense struct {
	ID          string    `json:"id"`
	DisplayID   int       `json:"displayId,omitempty"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Category    string    `json:"category,omitempty"`
	Amount      float64   `json:"amount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
}

// Counters holds the next display-id value per entity kind. Stored as a
// single record so seeding and allocation stay atomic at the store level.
type Counters struct {
	Client  int `json:"next_client_number"`
	Product int `json:"next_product_number"`
	Order   int `json:"next_order_number"`
	Expense int `json:"next_expense_number"`
}

type ClientCreateRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Notes    string `json:"notes"`
	Inactive bool   `json:"inactive"`
}

type ClientUpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	Inactive *bool   `json:"inactive,omitempty"`
}

type ProductCreateRequest struct {
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	Stock       float64       `json:"stock"`
	CostPerUnit float64       `json:"costPerUnit"`
	Tiers       []ProductTier `json:"tiers"`
}

type ProductUpdateRequest struct {
	Name        *string        `json:"name,omitempty"`
	Type        *string        `json:"type,omitempty"`
	CostPerUnit *float64       `json:"costPerUnit,omitempty"`
	Tiers       *[]ProductTier `json:"tiers,omitempty"`
}

type StockAdjustRequest struct {
	Amount       float64 `json:"amount"`
	PurchaseCost float64 `json:"purchaseCost"`
}

type OrderCreateRequest struct {
	ClientID string          `json:"clientId"`
	Date     string          `json:"date"`
	Items    []OrderItem     `json:"items"`
	Fees     OrderAdjustment `json:"fees"`
	Discount OrderAdjustment `json:"discount"`
	Payment  PaymentMethods  `json:"paymentMethods"`
}

type OrderUpdateRequest struct {
	Date     string          `json:"date"`
	Items    []OrderItem     `json:"items"`
	Fees     OrderAdjustment `json:"fees"`
	Discount OrderAdjustment `json:"discount"`
	Payment  PaymentMethods  `json:"paymentMethods"`
}

type RecordPaymentRequest struct {
	Method string  `json:"method"`
	Amount float64 `json:"amount"`
}

type ExpenseCreateRequest struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
}

// ExportBundle is the import/export document. All five arrays must be
// present on import, even when empty.
type ExportBundle struct {
	Clients  []Client   `json:"clients"`
	Products []Product  `json:"products"`
	Orders   []Order    `json:"orders"`
	Expenses []Expense  `json:"expenses"`
	Logs     []LogEntry `json:"logs"`
}

type ClientStats struct {
	ClientID       string  `json:"clientId"`
	OrderCount     int     `json:"orderCount"`
	TotalSpent     float64 `json:"totalSpent"`
	Balance        float64 `json:"balance"`
	TotalDiscounts float64 `json:"totalDiscounts"`
}

type ProductProfitability struct {
	ProductID  string  `json:"productId"`
	UnitsSold  float64 `json:"unitsSold"`
	TotalSales float64 `json:"totalSales"`
	TotalCost  float64 `json:"totalCost"`
	NetProfit  float64 `json:"netProfit"`
	Margin     float64 `json:"margin"`
}

type DashboardStats struct {
	SalesToday           float64 `json:"salesToday"`
	SalesThisWeek        float64 `json:"salesThisWeek"`
	SalesThisMonth       float64 `json:"salesThisMonth"`
	OutstandingDebt      float64 `json:"outstandingDebt"`
	UnpaidOrderCount     int     `json:"unpaidOrderCount"`
	InventoryRetailValue float64 `json:"inventoryRetailValue"`
	InventoryCost        float64 `json:"inventoryCost"`
}

type MonthlySalesPoint struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

type CategoryExpense struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// Receivable is one unpaid order classified against today's date for
// the collections view.
type Receivable struct {
	OrderID        string  `json:"orderId"`
	DisplayID      int     `json:"displayId"`
	ClientID       string  `json:"clientId"`
	ClientName     string  `json:"clientName"`
	Total          float64 `json:"total"`
	Balance        float64 `json:"balance"`
	PaymentDueDate string  `json:"paymentDueDate,omitempty"`
	DueState       string  `json:"dueState"`
	DaysDelta      int     `json:"daysDelta"`
}

type ProductSales struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Total     float64 `json:"total"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
}
