// Package displayid issues the short sequential numbers shown to users in
// place of internal opaque ids. Counters are persisted as a single record
// through a CounterStore so values survive restarts and are never reused,
// even across imports.
package displayid

import (
	"context"
	"fmt"
	"sync"

	"salesdesk/backend/internal/domain"
)

type Kind string

const (
	KindClient  Kind = "client"
	KindProduct Kind = "product"
	KindOrder   Kind = "order"
	KindExpense Kind = "expense"
)

var Kinds = []Kind{KindClient, KindProduct, KindOrder, KindExpense}

// CounterStore persists the counters record. Implementations must be
// durable across process restarts.
type CounterStore interface {
	LoadCounters(ctx context.Context) (domain.Counters, error)
	SaveCounters(ctx context.Context, counters domain.Counters) error
}

type Allocator struct {
	mu         sync.Mutex
	store      CounterStore
	counters   domain.Counters
	loaded     bool
	backfilled map[Kind]bool
}

func New(store CounterStore) *Allocator {
	return &Allocator{
		store:      store,
		backfilled: make(map[Kind]bool),
	}
}

func (a *Allocator) load(ctx context.Context) error {
	if a.loaded {
		return nil
	}
	counters, err := a.store.LoadCounters(ctx)
	if err != nil {
		return err
	}
	a.counters = normalize(counters)
	a.loaded = true
	return nil
}

// Seed raises the next value for kind to maxObserved+1 when that is larger
// than the current value. A non-positive maxObserved resets the counter to
// 1, which supports the all-data-wiped case. Idempotent; never rewinds an
// already larger counter (except through the explicit reset).
func (a *Allocator) Seed(ctx context.Context, kind Kind, maxObserved int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.load(ctx); err != nil {
		return err
	}

	current := a.counter(kind)
	next := *current
	if maxObserved <= 0 {
		next = 1
	} else if maxObserved+1 > next {
		next = maxObserved + 1
	}
	if next == *current {
		return nil
	}
	*current = next
	return a.store.SaveCounters(ctx, a.counters)
}

// Next returns the current value for kind and advances the stored counter.
// Gaps are acceptable (a caller may never persist the entity it allocated
// for); reuse is not.
func (a *Allocator) Next(ctx context.Context, kind Kind) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.load(ctx); err != nil {
		return 0, err
	}

	current := a.counter(kind)
	value := *current
	*current = value + 1
	if err := a.store.SaveCounters(ctx, a.counters); err != nil {
		return 0, err
	}
	return value, nil
}

// NeedsBackfill reports whether a backfill pass has not yet run for kind
// this session. Backfill assigns ids to entities that predate the
// allocator; it must run at most once per kind per session.
func (a *Allocator) NeedsBackfill(kind Kind) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.backfilled[kind]
}

func (a *Allocator) MarkBackfilled(kind Kind) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.backfilled[kind] = true
}

// ResetBackfill clears the per-kind backfill flags so freshly imported
// collections get a new backfill pass.
func (a *Allocator) ResetBackfill() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.backfilled = make(map[Kind]bool)
}

func (a *Allocator) counter(kind Kind) *int {
	switch kind {
	case KindProduct:
		return &a.counters.Product
	case KindOrder:
		return &a.counters.Order
	case KindExpense:
		return &a.counters.Expense
	default:
		return &a.counters.Client
	}
}

func normalize(c domain.Counters) domain.Counters {
	if c.Client < 1 {
		c.Client = 1
	}
	if c.Product < 1 {
		c.Product = 1
	}
	if c.Order < 1 {
		c.Order = 1
	}
	if c.Expense < 1 {
		c.Expense = 1
	}
	return c
}

// Format renders a display id the way the UI shows it, e.g. "Client #007".
// Pad widths differ per kind to match typical collection sizes.
func Format(kind Kind, id int) string {
	if id <= 0 {
		return ""
	}
	switch kind {
	case KindProduct:
		return fmt.Sprintf("Product #%02d", id)
	case KindOrder:
		return fmt.Sprintf("Order #%04d", id)
	case KindExpense:
		return fmt.Sprintf("Expense #%04d", id)
	default:
		return fmt.Sprintf("Client #%03d", id)
	}
}
