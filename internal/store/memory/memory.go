package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"salesdesk/backend/internal/domain"
	"salesdesk/backend/internal/store"
	"salesdesk/backend/internal/xid"
)

// Store keeps the whole dataset in process memory. Used for dev/demo mode
// and as the test backend.
type Store struct {
	mu       sync.RWMutex
	clients  map[string]domain.Client
	products map[string]domain.Product
	orders   map[string]domain.Order
	expenses map[string]domain.Expense
	logs     []domain.LogEntry
	counters domain.Counters
}

func New() *Store {
	return &Store{
		clients:  make(map[string]domain.Client),
		products: make(map[string]domain.Product),
		orders:   make(map[string]domain.Order),
		expenses: make(map[string]domain.Expense),
	}
}

// NewSeeded returns a store preloaded with a small demo dataset.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	clients := []domain.Client{
		{ID: xid.New("client"), DisplayID: 1, Name: "Walk-in", CreatedAt: now},
		{ID: xid.New("client"), DisplayID: 2, Name: "Andi", Phone: "0812-0000-0001", CreatedAt: now},
	}
	products := []domain.Product{
		{
			ID: xid.New("product"), DisplayID: 1, Name: "House Blend", Type: domain.ProductTypeGrams,
			Stock: 500, CostPerUnit: 12, CreatedAt: now,
			Tiers: []domain.ProductTier{
				{SizeLabel: "1g", Quantity: 1, Price: 40},
				{SizeLabel: "3.5g", Quantity: 3.5, Price: 130},
				{SizeLabel: "7g", Quantity: 7, Price: 200},
			},
		},
		{
			ID: xid.New("product"), DisplayID: 2, Name: "Cold Brew Concentrate", Type: domain.ProductTypeMilliliters,
			Stock: 2000, CostPerUnit: 0.02, CreatedAt: now,
			Tiers: []domain.ProductTier{
				{SizeLabel: "250ml", Quantity: 250, Price: 9},
				{SizeLabel: "1L", Quantity: 1000, Price: 30},
			},
		},
	}

	for _, c := range clients {
		s.clients[c.ID] = c
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	s.counters = domain.Counters{Client: 3, Product: 3, Order: 1, Expense: 1}
	return s
}

func (s *Store) ListClients(_ context.Context) ([]domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, cloneClient(c))
	}
	slices.SortFunc(out, func(a, b domain.Client) int { return cmpCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (s *Store) GetClient(_ context.Context, id string) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cloned := cloneClient(c)
	return &cloned, nil
}

func (s *Store) UpsertClient(_ context.Context, client domain.Client) error {
	if client.ID == "" {
		return store.ErrInvalidEntity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client.ID] = cloneClient(client)
	return nil
}

func (s *Store) DeleteClient(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.clients, id)
	return nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, cloneProduct(p))
	}
	slices.SortFunc(out, func(a, b domain.Product) int { return cmpCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cloned := cloneProduct(p)
	return &cloned, nil
}

func (s *Store) UpsertProduct(_ context.Context, product domain.Product) error {
	if product.ID == "" {
		return store.ErrInvalidEntity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[product.ID] = cloneProduct(product)
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListOrders(_ context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, cloneOrder(o))
	}
	slices.SortFunc(out, func(a, b domain.Order) int { return cmpCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (s *Store) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cloned := cloneOrder(o)
	return &cloned, nil
}

func (s *Store) UpsertOrder(_ context.Context, order domain.Order) error {
	if order.ID == "" {
		return store.ErrInvalidEntity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (s *Store) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *Store) ListExpenses(_ context.Context) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b domain.Expense) int { return cmpCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, id string) (*domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cloned := e
	return &cloned, nil
}

func (s *Store) UpsertExpense(_ context.Context, expense domain.Expense) error {
	if expense.ID == "" {
		return store.ErrInvalidEntity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[expense.ID] = expense
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListLogs(_ context.Context, limit int) ([]domain.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.LogEntry, len(s.logs))
	copy(out, s.logs)
	// Newest first.
	slices.SortFunc(out, func(a, b domain.LogEntry) int {
		switch {
		case a.Timestamp.After(b.Timestamp):
			return -1
		case a.Timestamp.Before(b.Timestamp):
			return 1
		default:
			return cmpString(b.ID, a.ID)
		}
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) AppendLog(_ context.Context, entry domain.LogEntry) error {
	if entry.ID == "" {
		return store.ErrInvalidEntity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	return nil
}

func (s *Store) LoadCounters(_ context.Context) (domain.Counters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters, nil
}

func (s *Store) SaveCounters(_ context.Context, counters domain.Counters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = counters
	return nil
}

func (s *Store) ReplaceAll(_ context.Context, bundle domain.ExportBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients = make(map[string]domain.Client, len(bundle.Clients))
	for _, c := range bundle.Clients {
		if c.ID == "" {
			return store.ErrInvalidEntity
		}
		s.clients[c.ID] = cloneClient(c)
	}
	s.products = make(map[string]domain.Product, len(bundle.Products))
	for _, p := range bundle.Products {
		if p.ID == "" {
			return store.ErrInvalidEntity
		}
		s.products[p.ID] = cloneProduct(p)
	}
	s.orders = make(map[string]domain.Order, len(bundle.Orders))
	for _, o := range bundle.Orders {
		if o.ID == "" {
			return store.ErrInvalidEntity
		}
		s.orders[o.ID] = cloneOrder(o)
	}
	s.expenses = make(map[string]domain.Expense, len(bundle.Expenses))
	for _, e := range bundle.Expenses {
		if e.ID == "" {
			return store.ErrInvalidEntity
		}
		s.expenses[e.ID] = e
	}
	s.logs = make([]domain.LogEntry, len(bundle.Logs))
	copy(s.logs, bundle.Logs)
	return nil
}

func cloneClient(c domain.Client) domain.Client {
	return c
}

func cloneProduct(p domain.Product) domain.Product {
	cloned := p
	cloned.Tiers = make([]domain.ProductTier, len(p.Tiers))
	copy(cloned.Tiers, p.Tiers)
	if p.LastOrdered != nil {
		t := *p.LastOrdered
		cloned.LastOrdered = &t
	}
	return cloned
}

func cloneOrder(o domain.Order) domain.Order {
	cloned := o
	cloned.Items = make([]domain.OrderItem, len(o.Items))
	copy(cloned.Items, o.Items)
	return cloned
}

func cmpCreated(a, b time.Time, aID, bID string) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return cmpString(aID, bID)
	}
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
