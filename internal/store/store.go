package store

import (
	"context"
	"errors"

	"salesdesk/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidEntity     = errors.New("invalid entity")
	ErrClientHasOrders   = errors.New("client has orders")
	ErrProductReferenced = errors.New("product referenced by orders")
)

// Repository is the entity store collaborator. The core works with whole
// entities keyed by opaque id; implementations hold the rest (file, SQL,
// memory) behind this surface. Counters live in the same store so that
// display-id allocation shares the dataset's durability.
type Repository interface {
	ListClients(ctx context.Context) ([]domain.Client, error)
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	UpsertClient(ctx context.Context, client domain.Client) error
	DeleteClient(ctx context.Context, id string) error

	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	UpsertProduct(ctx context.Context, product domain.Product) error
	DeleteProduct(ctx context.Context, id string) error

	ListOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	UpsertOrder(ctx context.Context, order domain.Order) error
	DeleteOrder(ctx context.Context, id string) error

	ListExpenses(ctx context.Context) ([]domain.Expense, error)
	GetExpense(ctx context.Context, id string) (*domain.Expense, error)
	UpsertExpense(ctx context.Context, expense domain.Expense) error
	DeleteExpense(ctx context.Context, id string) error

	ListLogs(ctx context.Context, limit int) ([]domain.LogEntry, error)
	AppendLog(ctx context.Context, entry domain.LogEntry) error

	LoadCounters(ctx context.Context) (domain.Counters, error)
	SaveCounters(ctx context.Context, counters domain.Counters) error

	// ReplaceAll swaps the whole dataset in one operation (import and
	// wipe). Counters are reset by the caller through the allocator.
	ReplaceAll(ctx context.Context, bundle domain.ExportBundle) error
}
