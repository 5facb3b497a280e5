package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"salesdesk/backend/internal/cache"
	"salesdesk/backend/internal/displayid"
	"salesdesk/backend/internal/domain"
	"salesdesk/backend/internal/payment"
	"salesdesk/backend/internal/report"
	"salesdesk/backend/internal/stockledger"
	"salesdesk/backend/internal/store"
	"salesdesk/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// InsufficientStockError is the refused add-item validation surfaced to
// the transport layer. It carries what the user needs to correct the
// request; it is not produced by the ledger itself.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Available   float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: only %g available", e.ProductName, e.Available)
}

type Service struct {
	repo     store.Repository
	alloc    *displayid.Allocator
	stats    cache.StatsCache
	statsTTL time.Duration
}

func New(repo store.Repository, alloc *displayid.Allocator, stats cache.StatsCache, statsTTL time.Duration) *Service {
	if stats == nil {
		stats = cache.NoopStatsCache{}
	}
	if statsTTL <= 0 {
		statsTTL = 30 * time.Second
	}
	return &Service{
		repo:     repo,
		alloc:    alloc,
		stats:    stats,
		statsTTL: statsTTL,
	}
}

// Bootstrap prepares a freshly loaded dataset: legacy payment shapes are
// migrated, counters are seeded from the highest observed display ids,
// and entities missing a display id are backfilled. Runs once at startup
// and again after every bulk load.
func (s *Service) Bootstrap(ctx context.Context) error {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return err
	}
	for _, order := range orders {
		if migrated, changed := payment.MigrateLegacy(order); changed {
			if err := s.repo.UpsertOrder(ctx, migrated); err != nil {
				return fmt.Errorf("persist migrated order %s: %w", order.ID, err)
			}
		}
	}

	return s.seedAndBackfill(ctx)
}

func (s *Service) seedAndBackfill(ctx context.Context) error {
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return err
	}
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return err
	}
	expenses, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return err
	}

	// Seed before backfill so freshly assigned ids never collide with
	// existing ones.
	seeds := []struct {
		kind displayid.Kind
		max  int
	}{
		{displayid.KindClient, maxID(clients, func(c domain.Client) int { return c.DisplayID })},
		{displayid.KindProduct, maxID(products, func(p domain.Product) int { return p.DisplayID })},
		{displayid.KindOrder, maxID(orders, func(o domain.Order) int { return o.DisplayID })},
		{displayid.KindExpense, maxID(expenses, func(e domain.Expense) int { return e.DisplayID })},
	}
	for _, seed := range seeds {
		if err := s.alloc.Seed(ctx, seed.kind, seed.max); err != nil {
			return fmt.Errorf("seed %s counter: %w", seed.kind, err)
		}
	}

	if err := backfill(ctx, s.alloc, displayid.KindClient, clients,
		func(c domain.Client) int { return c.DisplayID },
		func(c *domain.Client, id int) { c.DisplayID = id },
		s.repo.UpsertClient); err != nil {
		return err
	}
	if err := backfill(ctx, s.alloc, displayid.KindProduct, products,
		func(p domain.Product) int { return p.DisplayID },
		func(p *domain.Product, id int) { p.DisplayID = id },
		s.repo.UpsertProduct); err != nil {
		return err
	}
	if err := backfill(ctx, s.alloc, displayid.KindOrder, orders,
		func(o domain.Order) int { return o.DisplayID },
		func(o *domain.Order, id int) { o.DisplayID = id },
		s.repo.UpsertOrder); err != nil {
		return err
	}
	return backfill(ctx, s.alloc, displayid.KindExpense, expenses,
		func(e domain.Expense) int { return e.DisplayID },
		func(e *domain.Expense, id int) { e.DisplayID = id },
		s.repo.UpsertExpense)
}

func maxID[T any](items []T, get func(T) int) int {
	max := 0
	for _, item := range items {
		if id := get(item); id > max {
			max = id
		}
	}
	return max
}

func backfill[T any](ctx context.Context, alloc *displayid.Allocator, kind displayid.Kind, items []T,
	get func(T) int, set func(*T, int), persist func(context.Context, T) error) error {
	if !alloc.NeedsBackfill(kind) {
		return nil
	}
	for _, item := range items {
		if get(item) > 0 {
			continue
		}
		id, err := alloc.Next(ctx, kind)
		if err != nil {
			return fmt.Errorf("backfill %s: %w", kind, err)
		}
		set(&item, id)
		if err := persist(ctx, item); err != nil {
			return fmt.Errorf("backfill %s: %w", kind, err)
		}
	}
	alloc.MarkBackfilled(kind)
	return nil
}

// --- clients ---

func (s *Service) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.repo.ListClients(ctx)
}

func (s *Service) CreateClient(ctx context.Context, req domain.ClientCreateRequest) (domain.Client, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Client{}, store.ErrInvalidEntity
	}

	id, err := s.alloc.Next(ctx, displayid.KindClient)
	if err != nil {
		return domain.Client{}, err
	}

	client := domain.Client{
		ID:        xid.New("client"),
		DisplayID: id,
		Name:      req.Name,
		Phone:     strings.TrimSpace(req.Phone),
		Notes:     strings.TrimSpace(req.Notes),
		Inactive:  req.Inactive,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.UpsertClient(ctx, client); err != nil {
		return domain.Client{}, err
	}

	s.logActivity(ctx, "client_create", fmt.Sprintf("%s (%s)", client.Name, displayid.Format(displayid.KindClient, client.DisplayID)))
	return client, nil
}

func (s *Service) UpdateClient(ctx context.Context, id string, req domain.ClientUpdateRequest) (domain.Client, error) {
	existing, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Client{}, store.ErrInvalidEntity
		}
		updated.Name = name
	}
	if req.Phone != nil {
		updated.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Notes != nil {
		updated.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Inactive != nil {
		// Unlike products, client inactive is a plain user-settable flag.
		updated.Inactive = *req.Inactive
	}

	if err := s.repo.UpsertClient(ctx, updated); err != nil {
		return domain.Client{}, err
	}
	s.logActivity(ctx, "client_update", updated.Name)
	return updated, nil
}

// HasOrders reports whether any order references the client. Callers must
// check it before deletion; DeleteClient enforces it as well.
func (s *Service) HasOrders(ctx context.Context, clientID string) (bool, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return false, err
	}
	for _, order := range orders {
		if order.ClientID == clientID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) DeleteClient(ctx context.Context, id string) error {
	client, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return err
	}

	has, err := s.HasOrders(ctx, id)
	if err != nil {
		return err
	}
	if has {
		return store.ErrClientHasOrders
	}

	if err := s.repo.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.logActivity(ctx, "client_delete", client.Name)
	return nil
}

func (s *Service) ClientStats(ctx context.Context, clientID string) (domain.ClientStats, error) {
	if _, err := s.repo.GetClient(ctx, clientID); err != nil {
		return domain.ClientStats{}, err
	}
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return domain.ClientStats{}, err
	}
	return report.PerClient(orders, clientID), nil
}

// --- products ---

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || !validProductType(req.Type) {
		return domain.Product{}, store.ErrInvalidEntity
	}
	if req.CostPerUnit < 0 {
		return domain.Product{}, store.ErrInvalidEntity
	}

	id, err := s.alloc.Next(ctx, displayid.KindProduct)
	if err != nil {
		return domain.Product{}, err
	}

	product := domain.Product{
		ID:          xid.New("product"),
		DisplayID:   id,
		Name:        req.Name,
		Type:        req.Type,
		Stock:       req.Stock,
		CostPerUnit: req.CostPerUnit,
		Tiers:       normalizeTiers(req.Tiers),
		Inactive:    req.Stock <= 0,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.UpsertProduct(ctx, product); err != nil {
		return domain.Product{}, err
	}

	s.logActivity(ctx, "product_create", fmt.Sprintf("%s (%s)", product.Name, displayid.Format(displayid.KindProduct, product.DisplayID)))
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidEntity
		}
		updated.Name = name
	}
	if req.Type != nil {
		if !validProductType(*req.Type) {
			return domain.Product{}, store.ErrInvalidEntity
		}
		updated.Type = *req.Type
	}
	if req.CostPerUnit != nil {
		if *req.CostPerUnit < 0 {
			return domain.Product{}, store.ErrInvalidEntity
		}
		updated.CostPerUnit = *req.CostPerUnit
	}
	if req.Tiers != nil {
		updated.Tiers = normalizeTiers(*req.Tiers)
	}
	// Inactive always tracks stock, so an edit cannot resurrect a
	// sold-out product.
	updated.Inactive = updated.Stock <= 0

	if err := s.repo.UpsertProduct(ctx, updated); err != nil {
		return domain.Product{}, err
	}
	s.logActivity(ctx, "product_update", updated.Name)
	return updated, nil
}

// IsReferenced reports whether any order line refers to the product.
func (s *Service) IsReferenced(ctx context.Context, productID string) (bool, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return false, err
	}
	for _, order := range orders {
		for _, item := range order.Items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	referenced, err := s.IsReferenced(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return store.ErrProductReferenced
	}

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logActivity(ctx, "product_delete", product.Name)
	return nil
}

// AdjustStock applies a manual stock delta. A positive, costed addition
// blends the purchase into the average cost per unit and books a matching
// inventory expense.
func (s *Service) AdjustStock(ctx context.Context, id string, req domain.StockAdjustRequest) (domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if req.Amount == 0 {
		return *product, nil
	}

	newStock := product.Stock + req.Amount
	if req.Amount > 0 && req.PurchaseCost > 0 && newStock > 0 {
		product.CostPerUnit = round2(((product.Stock * product.CostPerUnit) + req.PurchaseCost) / newStock)
	}

	updated := stockledger.Apply(*product, req.Amount, time.Now().UTC(), false)
	if err := s.repo.UpsertProduct(ctx, updated); err != nil {
		return domain.Product{}, err
	}

	if req.Amount > 0 && req.PurchaseCost > 0 {
		if _, err := s.CreateExpense(ctx, domain.ExpenseCreateRequest{
			Date:        time.Now().UTC().Format("2006-01-02"),
			Description: fmt.Sprintf("Stock purchase for %s", updated.Name),
			Category:    "Inventory",
			Amount:      req.PurchaseCost,
		}); err != nil {
			log.Printf("[service] WARN: failed to record stock purchase expense for %s: %v", updated.Name, err)
		}
	}

	s.invalidateDashboard(ctx)
	s.logActivity(ctx, "stock_adjust", fmt.Sprintf("%s %+g (stock %g)", updated.Name, req.Amount, updated.Stock))
	return updated, nil
}

func (s *Service) ProductStats(ctx context.Context, productID string) (domain.ProductProfitability, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return domain.ProductProfitability{}, err
	}
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return domain.ProductProfitability{}, err
	}
	return report.PerProduct(orders, *product), nil
}

// --- orders ---

func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListOrders(ctx)
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return *order, nil
}

func (s *Service) CreateOrder(ctx context.Context, req domain.OrderCreateRequest) (domain.Order, error) {
	if _, err := s.repo.GetClient(ctx, req.ClientID); err != nil {
		return domain.Order{}, err
	}
	if req.Fees.Amount < 0 || req.Discount.Amount < 0 {
		return domain.Order{}, store.ErrInvalidEntity
	}
	items, err := s.validateItems(ctx, req.Items, true)
	if err != nil {
		return domain.Order{}, err
	}

	id, err := s.alloc.Next(ctx, displayid.KindOrder)
	if err != nil {
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:             xid.New("order"),
		DisplayID:      id,
		ClientID:       req.ClientID,
		Date:           orDefaultDate(req.Date, now),
		Items:          items,
		Fees:           req.Fees,
		Discount:       req.Discount,
		PaymentMethods: req.Payment,
		PaymentDueDate: req.Payment.DueDate,
		CreatedAt:      now,
	}
	order = payment.Recalculate(order)

	if err := s.repo.UpsertOrder(ctx, order); err != nil {
		return domain.Order{}, err
	}
	if err := s.applyDeltas(ctx, stockledger.OnCreate(order), stockledger.Touched(order), now); err != nil {
		return domain.Order{}, err
	}

	s.invalidateDashboard(ctx)
	s.logActivity(ctx, "order_create", fmt.Sprintf("%s total %.2f", displayid.Format(displayid.KindOrder, order.DisplayID), order.Total))
	return order, nil
}

func (s *Service) UpdateOrder(ctx context.Context, id string, req domain.OrderUpdateRequest) (domain.Order, error) {
	existing, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if req.Fees.Amount < 0 || req.Discount.Amount < 0 {
		return domain.Order{}, store.ErrInvalidEntity
	}
	// Edits deliberately skip the availability check: quantities already
	// committed to the order were validated when added, and tightening
	// here would block legitimate corrections.
	items, err := s.validateItems(ctx, req.Items, false)
	if err != nil {
		return domain.Order{}, err
	}

	updated := *existing
	if req.Date != "" {
		updated.Date = req.Date
	}
	updated.Items = items
	updated.Fees = req.Fees
	updated.Discount = req.Discount
	updated.PaymentMethods.DueDate = req.Payment.DueDate
	updated.PaymentDueDate = req.Payment.DueDate
	updated = payment.SetBreakdown(updated, req.Payment.Cash, req.Payment.Etransfer)

	now := time.Now().UTC()
	if err := s.repo.UpsertOrder(ctx, updated); err != nil {
		return domain.Order{}, err
	}
	if err := s.applyDeltas(ctx, stockledger.OnEdit(*existing, updated), stockledger.Touched(updated), now); err != nil {
		return domain.Order{}, err
	}

	s.invalidateDashboard(ctx)
	s.logActivity(ctx, "order_update", displayid.Format(displayid.KindOrder, updated.DisplayID))
	return updated, nil
}

func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteOrder(ctx, id); err != nil {
		return err
	}
	if err := s.applyDeltas(ctx, stockledger.OnDelete(*order), nil, time.Now().UTC()); err != nil {
		return err
	}

	s.invalidateDashboard(ctx)
	s.logActivity(ctx, "order_delete", displayid.Format(displayid.KindOrder, order.DisplayID))
	return nil
}

func (s *Service) RecordPayment(ctx context.Context, orderID string, req domain.RecordPaymentRequest) (domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	method := req.Method
	if method != payment.MethodCash && method != payment.MethodEtransfer {
		return domain.Order{}, store.ErrInvalidEntity
	}

	updated := payment.Apply(*order, method, req.Amount)
	if err := s.repo.UpsertOrder(ctx, updated); err != nil {
		return domain.Order{}, err
	}

	s.invalidateDashboard(ctx)
	s.logActivity(ctx, "payment_record", fmt.Sprintf("%s paid %.0f via %s", displayid.Format(displayid.KindOrder, updated.DisplayID), updated.AmountPaid, method))
	return updated, nil
}

// validateItems checks line sanity and, for new orders, availability per
// product (summed across lines referencing it).
func (s *Service) validateItems(ctx context.Context, items []domain.OrderItem, checkStock bool) ([]domain.OrderItem, error) {
	if len(items) == 0 {
		return nil, store.ErrInvalidEntity
	}

	requested := make(map[string]float64)
	out := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" || item.Quantity <= 0 || item.Price < 0 {
			return nil, store.ErrInvalidEntity
		}
		item.SizeLabel = strings.TrimSpace(item.SizeLabel)
		item.Price = round2(item.Price)
		requested[item.ProductID] += item.Quantity
		out = append(out, item)
	}

	for productID, qty := range requested {
		product, err := s.repo.GetProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		if !checkStock {
			continue
		}
		if avail := stockledger.CheckAvailability(*product, 0, qty); !avail.OK {
			return nil, &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   avail.Available,
			}
		}
	}
	return out, nil
}

func (s *Service) applyDeltas(ctx context.Context, deltas map[string]float64, touched map[string]bool, now time.Time) error {
	for productID, delta := range deltas {
		product, err := s.repo.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// The product was removed after the order referenced it;
				// nothing left to adjust.
				continue
			}
			return err
		}
		updated := stockledger.Apply(*product, delta, now, touched[productID])
		if err := s.repo.UpsertProduct(ctx, updated); err != nil {
			return err
		}
	}
	return nil
}

// --- expenses ---

func (s *Service) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	return s.repo.ListExpenses(ctx)
}

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" || req.Amount <= 0 {
		return domain.Expense{}, store.ErrInvalidEntity
	}

	id, err := s.alloc.Next(ctx, displayid.KindExpense)
	if err != nil {
		return domain.Expense{}, err
	}

	now := time.Now().UTC()
	expense := domain.Expense{
		ID:          xid.New("expense"),
		DisplayID:   id,
		Date:        orDefaultDate(req.Date, now),
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		Amount:      round2(req.Amount),
		CreatedAt:   now,
	}
	if err := s.repo.UpsertExpense(ctx, expense); err != nil {
		return domain.Expense{}, err
	}

	s.logActivity(ctx, "expense_create", fmt.Sprintf("%s %.2f", expense.Description, expense.Amount))
	return expense, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	expense, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.logActivity(ctx, "expense_delete", expense.Description)
	return nil
}

// --- reports ---

const dashboardKeyPrefix = "dashboard:"

func (s *Service) Dashboard(ctx context.Context) (domain.DashboardStats, error) {
	today := time.Now().UTC()
	key := dashboardKeyPrefix + today.Format("2006-01-02")

	if cached, ok, err := s.stats.Get(ctx, key); err == nil && ok {
		return *cached, nil
	} else if err != nil {
		log.Printf("[service] WARN: dashboard cache read failed: %v", err)
	}

	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	stats := report.DashboardTotals(orders, products, today)
	if err := s.stats.Set(ctx, key, &stats, s.statsTTL); err != nil {
		log.Printf("[service] WARN: dashboard cache write failed: %v", err)
	}
	return stats, nil
}

func (s *Service) invalidateDashboard(ctx context.Context) {
	key := dashboardKeyPrefix + time.Now().UTC().Format("2006-01-02")
	if err := s.stats.Invalidate(ctx, key); err != nil {
		log.Printf("[service] WARN: dashboard cache invalidation failed: %v", err)
	}
}

func (s *Service) MonthlySales(ctx context.Context) ([]domain.MonthlySalesPoint, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return report.MonthlySales(orders), nil
}

func (s *Service) ExpenseByCategory(ctx context.Context) ([]domain.CategoryExpense, error) {
	expenses, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}
	return report.ExpenseByCategory(expenses), nil
}

func (s *Service) TopClients(ctx context.Context, limit int) ([]domain.ClientStats, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	return report.TopClients(orders, clients, limit), nil
}

func (s *Service) Receivables(ctx context.Context) ([]domain.Receivable, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	return report.Receivables(orders, clients, time.Now()), nil
}

func (s *Service) SalesByProduct(ctx context.Context) ([]domain.ProductSales, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return report.SalesByProduct(orders, products), nil
}

func (s *Service) ListLogs(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	if limit < 1 {
		limit = 200
	}
	return s.repo.ListLogs(ctx, limit)
}

// --- import / export / wipe ---

func (s *Service) Export(ctx context.Context) (domain.ExportBundle, error) {
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return domain.ExportBundle{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.ExportBundle{}, err
	}
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return domain.ExportBundle{}, err
	}
	expenses, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return domain.ExportBundle{}, err
	}
	logs, err := s.repo.ListLogs(ctx, 0)
	if err != nil {
		return domain.ExportBundle{}, err
	}

	return domain.ExportBundle{
		Clients:  emptyIfNil(clients),
		Products: emptyIfNil(products),
		Orders:   emptyIfNil(orders),
		Expenses: emptyIfNil(expenses),
		Logs:     emptyIfNil(logs),
	}, nil
}

// Import replaces the dataset with the bundle. Legacy payment shapes are
// migrated, counters are re-seeded from the imported display-id maxima
// before anything new can be allocated, and backfill is re-armed for the
// fresh collections.
func (s *Service) Import(ctx context.Context, bundle domain.ExportBundle) error {
	for i, order := range bundle.Orders {
		if migrated, changed := payment.MigrateLegacy(order); changed {
			bundle.Orders[i] = migrated
		}
	}

	if err := s.repo.ReplaceAll(ctx, bundle); err != nil {
		return err
	}

	s.alloc.ResetBackfill()
	if err := s.seedAndBackfill(ctx); err != nil {
		return err
	}

	s.invalidateDashboard(ctx)
	s.logActivity(ctx, "data_import", fmt.Sprintf("%d clients, %d products, %d orders, %d expenses",
		len(bundle.Clients), len(bundle.Products), len(bundle.Orders), len(bundle.Expenses)))
	return nil
}

// WipeAll deletes the dataset and resets every counter to 1.
func (s *Service) WipeAll(ctx context.Context) error {
	err := s.repo.ReplaceAll(ctx, domain.ExportBundle{
		Clients:  []domain.Client{},
		Products: []domain.Product{},
		Orders:   []domain.Order{},
		Expenses: []domain.Expense{},
		Logs:     []domain.LogEntry{},
	})
	if err != nil {
		return err
	}

	for _, kind := range displayid.Kinds {
		if err := s.alloc.Seed(ctx, kind, 0); err != nil {
			return err
		}
	}
	s.alloc.ResetBackfill()
	s.invalidateDashboard(ctx)
	s.logActivity(ctx, "data_wipe", "all data deleted")
	return nil
}

// --- helpers ---

func (s *Service) logActivity(ctx context.Context, action string, detail string) {
	if actor, ok := ActorFromContext(ctx); ok && actor.Username != "" {
		detail = fmt.Sprintf("%s by %s", detail, actor.Username)
	}
	entry := domain.LogEntry{
		ID:        xid.New("log"),
		Timestamp: time.Now().UTC(),
		Action:    action,
		Detail:    detail,
	}
	if err := s.repo.AppendLog(ctx, entry); err != nil {
		log.Printf("[service] WARN: failed to append activity log (%s): %v", action, err)
	}
}

func validProductType(t string) bool {
	switch t {
	case domain.ProductTypeGrams, domain.ProductTypeMilliliters, domain.ProductTypeUnit:
		return true
	default:
		return false
	}
}

func normalizeTiers(tiers []domain.ProductTier) []domain.ProductTier {
	out := make([]domain.ProductTier, 0, len(tiers))
	for _, tier := range tiers {
		tier.SizeLabel = strings.TrimSpace(tier.SizeLabel)
		out = append(out, tier)
	}
	return out
}

func orDefaultDate(date string, now time.Time) string {
	if strings.TrimSpace(date) == "" {
		return now.Format("2006-01-02")
	}
	return date
}

func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
