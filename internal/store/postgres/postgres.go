// Package postgres is the hosted store backend. The core treats the
// remote schema as opaque, so entities are stored as whole jsonb
// documents in one table per kind and replaced wholesale on upsert.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"salesdesk/backend/internal/domain"
	"salesdesk/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS entities (
			kind       text NOT NULL,
			id         text NOT NULL,
			doc        jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (kind, id)
		);
		CREATE TABLE IF NOT EXISTS counters (
			singleton  boolean PRIMARY KEY DEFAULT true,
			doc        jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		);
	`)
	return err
}

const (
	kindClient  = "client"
	kindProduct = "product"
	kindOrder   = "order"
	kindExpense = "expense"
	kindLog     = "log"
)

func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	return listDocs[domain.Client](ctx, s.db, kindClient)
}

func (s *Store) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	return getDoc[domain.Client](ctx, s.db, kindClient, id)
}

func (s *Store) UpsertClient(ctx context.Context, client domain.Client) error {
	return putDoc(ctx, s.db, kindClient, client.ID, client)
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	return deleteDoc(ctx, s.db, kindClient, id)
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return listDocs[domain.Product](ctx, s.db, kindProduct)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return getDoc[domain.Product](ctx, s.db, kindProduct, id)
}

func (s *Store) UpsertProduct(ctx context.Context, product domain.Product) error {
	return putDoc(ctx, s.db, kindProduct, product.ID, product)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return deleteDoc(ctx, s.db, kindProduct, id)
}

func (s *Store) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return listDocs[domain.Order](ctx, s.db, kindOrder)
}

func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return getDoc[domain.Order](ctx, s.db, kindOrder, id)
}

func (s *Store) UpsertOrder(ctx context.Context, order domain.Order) error {
	return putDoc(ctx, s.db, kindOrder, order.ID, order)
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	return deleteDoc(ctx, s.db, kindOrder, id)
}

func (s *Store) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	return listDocs[domain.Expense](ctx, s.db, kindExpense)
}

func (s *Store) GetExpense(ctx context.Context, id string) (*domain.Expense, error) {
	return getDoc[domain.Expense](ctx, s.db, kindExpense, id)
}

func (s *Store) UpsertExpense(ctx context.Context, expense domain.Expense) error {
	return putDoc(ctx, s.db, kindExpense, expense.ID, expense)
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	return deleteDoc(ctx, s.db, kindExpense, id)
}

func (s *Store) ListLogs(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	query := `
		SELECT doc FROM entities
		WHERE kind = $1
		ORDER BY doc->>'timestamp' DESC, id DESC
	`
	args := []any{kindLog}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.LogEntry, 0, 64)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var entry domain.LogEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func (s *Store) AppendLog(ctx context.Context, entry domain.LogEntry) error {
	return putDoc(ctx, s.db, kindLog, entry.ID, entry)
}

func (s *Store) LoadCounters(ctx context.Context) (domain.Counters, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM counters WHERE singleton = true`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Counters{}, nil
	}
	if err != nil {
		return domain.Counters{}, err
	}

	var counters domain.Counters
	if err := json.Unmarshal(raw, &counters); err != nil {
		return domain.Counters{}, err
	}
	return counters, nil
}

func (s *Store) SaveCounters(ctx context.Context, counters domain.Counters) error {
	payload, err := json.Marshal(counters)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO counters (singleton, doc, updated_at)
		VALUES (true, $1, now())
		ON CONFLICT (singleton) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, payload)
	return err
}

func (s *Store) ReplaceAll(ctx context.Context, bundle domain.ExportBundle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entities`); err != nil {
		return err
	}

	if err := insertDocs(ctx, tx, kindClient, bundle.Clients, func(c domain.Client) string { return c.ID }); err != nil {
		return err
	}
	if err := insertDocs(ctx, tx, kindProduct, bundle.Products, func(p domain.Product) string { return p.ID }); err != nil {
		return err
	}
	if err := insertDocs(ctx, tx, kindOrder, bundle.Orders, func(o domain.Order) string { return o.ID }); err != nil {
		return err
	}
	if err := insertDocs(ctx, tx, kindExpense, bundle.Expenses, func(e domain.Expense) string { return e.ID }); err != nil {
		return err
	}
	if err := insertDocs(ctx, tx, kindLog, bundle.Logs, func(l domain.LogEntry) string { return l.ID }); err != nil {
		return err
	}

	return tx.Commit()
}

func insertDocs[T any](ctx context.Context, tx *sql.Tx, kind string, items []T, key func(T) string) error {
	for _, item := range items {
		id := key(item)
		if id == "" {
			return store.ErrInvalidEntity
		}
		payload, err := json.Marshal(item)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO entities (kind, id, doc, updated_at) VALUES ($1, $2, $3, now())
		`, kind, id, payload)
		if err != nil {
			return err
		}
	}
	return nil
}

func listDocs[T any](ctx context.Context, db *sql.DB, kind string) ([]T, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT doc FROM entities WHERE kind = $1 ORDER BY doc->>'createdAt', id
	`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0, 64)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func getDoc[T any](ctx context.Context, db *sql.DB, kind string, id string) (*T, error) {
	var raw []byte
	err := db.QueryRowContext(ctx, `
		SELECT doc FROM entities WHERE kind = $1 AND id = $2
	`, kind, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func putDoc[T any](ctx context.Context, db *sql.DB, kind string, id string, item T) error {
	if id == "" {
		return store.ErrInvalidEntity
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO entities (kind, id, doc, updated_at) VALUES ($1, $2, $3, now())
		ON CONFLICT (kind, id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, kind, id, payload)
	return err
}

func deleteDoc(ctx context.Context, db *sql.DB, kind string, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM entities WHERE kind = $1 AND id = $2`, kind, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
