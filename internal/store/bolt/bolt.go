// Package bolt persists the dataset in a single embedded bbolt file. This
// is the durable local storage backend: one bucket per entity kind plus a
// meta bucket holding the display-id counters, entities stored as JSON
// documents keyed by opaque id.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	bbolt "go.etcd.io/bbolt"

	"salesdesk/backend/internal/domain"
	"salesdesk/backend/internal/store"
)

var (
	bucketClients  = []byte("clients")
	bucketProducts = []byte("products")
	bucketOrders   = []byte("orders")
	bucketExpenses = []byte("expenses")
	bucketLogs     = []byte("logs")
	bucketMeta     = []byte("meta")

	keyCounters = []byte("id_counters_v1")
)

type Store struct {
	db *bbolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketClients, bucketProducts, bucketOrders, bucketExpenses, bucketLogs, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListClients(_ context.Context) ([]domain.Client, error) {
	out, err := listAll[domain.Client](s.db, bucketClients)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b domain.Client) int { return cmpCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (s *Store) GetClient(_ context.Context, id string) (*domain.Client, error) {
	return getOne[domain.Client](s.db, bucketClients, id)
}

func (s *Store) UpsertClient(_ context.Context, client domain.Client) error {
	return putOne(s.db, bucketClients, client.ID, client)
}

func (s *Store) DeleteClient(_ context.Context, id string) error {
	return deleteOne(s.db, bucketClients, id)
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	out, err := listAll[domain.Product](s.db, bucketProducts)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b domain.Product) int { return cmpCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	return getOne[domain.Product](s.db, bucketProducts, id)
}

func (s *Store) UpsertProduct(_ context.Context, product domain.Product) error {
	return putOne(s.db, bucketProducts, product.ID, product)
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	return deleteOne(s.db, bucketProducts, id)
}

func (s *Store) ListOrders(_ context.Context) ([]domain.Order, error) {
	out, err := listAll[domain.Order](s.db, bucketOrders)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b domain.Order) int { return cmpCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (s *Store) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	return getOne[domain.Order](s.db, bucketOrders, id)
}

func (s *Store) UpsertOrder(_ context.Context, order domain.Order) error {
	return putOne(s.db, bucketOrders, order.ID, order)
}

func (s *Store) DeleteOrder(_ context.Context, id string) error {
	return deleteOne(s.db, bucketOrders, id)
}

func (s *Store) ListExpenses(_ context.Context) ([]domain.Expense, error) {
	out, err := listAll[domain.Expense](s.db, bucketExpenses)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b domain.Expense) int { return cmpCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, id string) (*domain.Expense, error) {
	return getOne[domain.Expense](s.db, bucketExpenses, id)
}

func (s *Store) UpsertExpense(_ context.Context, expense domain.Expense) error {
	return putOne(s.db, bucketExpenses, expense.ID, expense)
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	return deleteOne(s.db, bucketExpenses, id)
}

func (s *Store) ListLogs(_ context.Context, limit int) ([]domain.LogEntry, error) {
	out, err := listAll[domain.LogEntry](s.db, bucketLogs)
	if err != nil {
		return nil, err
	}
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
	return putOne(s.db, bucketLogs, entry.ID, entry)
}

func (s *Store) LoadCounters(_ context.Context) (domain.Counters, error) {
	var counters domain.Counters
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketMeta).Get(keyCounters)
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &counters)
	})
	if err != nil {
		return domain.Counters{}, fmt.Errorf("load counters: %w", err)
	}
	return counters, nil
}

func (s *Store) SaveCounters(_ context.Context, counters domain.Counters) error {
	payload, err := json.Marshal(counters)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyCounters, payload)
	})
}

func (s *Store) ReplaceAll(_ context.Context, bundle domain.ExportBundle) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketClients, bucketProducts, bucketOrders, bucketExpenses, bucketLogs} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		if err := fillBucket(tx, bucketClients, bundle.Clients, func(c domain.Client) string { return c.ID }); err != nil {
			return err
		}
		if err := fillBucket(tx, bucketProducts, bundle.Products, func(p domain.Product) string { return p.ID }); err != nil {
			return err
		}
		if err := fillBucket(tx, bucketOrders, bundle.Orders, func(o domain.Order) string { return o.ID }); err != nil {
			return err
		}
		if err := fillBucket(tx, bucketExpenses, bundle.Expenses, func(e domain.Expense) string { return e.ID }); err != nil {
			return err
		}
		return fillBucket(tx, bucketLogs, bundle.Logs, func(l domain.LogEntry) string { return l.ID })
	})
}

func fillBucket[T any](tx *bbolt.Tx, bucket []byte, items []T, key func(T) string) error {
	b := tx.Bucket(bucket)
	for _, item := range items {
		id := key(item)
		if id == "" {
			return store.ErrInvalidEntity
		}
		payload, err := json.Marshal(item)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(id), payload); err != nil {
			return err
		}
	}
	return nil
}

func listAll[T any](db *bbolt.DB, bucket []byte) ([]T, error) {
	var out []T
	err := db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(_, v []byte) error {
			var item T
			if err := json.Unmarshal(v, &item); err != nil {
				return err
			}
			out = append(out, item)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", bucket, err)
	}
	return out, nil
}

func getOne[T any](db *bbolt.DB, bucket []byte, id string) (*T, error) {
	var item T
	found := false
	err := db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucket).Get([]byte(id))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &item)
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", bucket, err)
	}
	if !found {
		return nil, store.ErrNotFound
	}
	return &item, nil
}

func putOne[T any](db *bbolt.DB, bucket []byte, id string, item T) error {
	if id == "" {
		return store.ErrInvalidEntity
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(id), payload)
	})
}

func deleteOne(db *bbolt.DB, bucket []byte, id string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if b.Get([]byte(id)) == nil {
			return store.ErrNotFound
		}
		return b.Delete([]byte(id))
	})
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
