package displayid

import (
	"context"
	"testing"

	"salesdesk/backend/internal/domain"
)

// memStore is a minimal in-process CounterStore for allocator tests.
type memStore struct {
	counters domain.Counters
	saves    int
}

func (m *memStore) LoadCounters(_ context.Context) (domain.Counters, error) {
	return m.counters, nil
}

func (m *memStore) SaveCounters(_ context.Context, c domain.Counters) error {
	m.counters = c
	m.saves++
	return nil
}

func TestNextIsMonotonic(t *testing.T) {
	ctx := context.Background()
	alloc := New(&memStore{})

	seen := make(map[int]bool)
	for i := 0; i < 5; i++ {
		v, err := alloc.Next(ctx, KindOrder)
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		if seen[v] {
			t.Fatalf("value %d issued twice", v)
		}
		if v != i+1 {
			t.Fatalf("expected %d, got %d", i+1, v)
		}
		seen[v] = true
	}
}

func TestSeedRaisesButNeverRewinds(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	alloc := New(store)

	if err := alloc.Seed(ctx, KindClient, 41); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	v, _ := alloc.Next(ctx, KindClient)
	if v != 42 {
		t.Fatalf("expected 42 after seeding max 41, got %d", v)
	}

	// Smaller observations must not rewind the counter.
	if err := alloc.Seed(ctx, KindClient, 10); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	v, _ = alloc.Next(ctx, KindClient)
	if v != 43 {
		t.Fatalf("expected 43, got %d", v)
	}
}

func TestSeedResetsOnWipe(t *testing.T) {
	ctx := context.Background()
	alloc := New(&memStore{})

	alloc.Seed(ctx, KindExpense, 99)
	if err := alloc.Seed(ctx, KindExpense, 0); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	v, _ := alloc.Next(ctx, KindExpense)
	if v != 1 {
		t.Fatalf("expected counter reset to 1, got %d", v)
	}
}

func TestCountersAreIndependent(t *testing.T) {
	ctx := context.Background()
	alloc := New(&memStore{})

	alloc.Seed(ctx, KindOrder, 100)
	v, _ := alloc.Next(ctx, KindProduct)
	if v != 1 {
		t.Fatalf("product counter must be unaffected by order seed, got %d", v)
	}
}

func TestAllocatorPersistsThroughStore(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}

	alloc := New(store)
	alloc.Next(ctx, KindClient)
	alloc.Next(ctx, KindClient)

	// A new allocator over the same store must continue, not restart.
	reopened := New(store)
	v, _ := reopened.Next(ctx, KindClient)
	if v != 3 {
		t.Fatalf("expected 3 after reopen, got %d", v)
	}
}

func TestBackfillFlags(t *testing.T) {
	alloc := New(&memStore{})

	if !alloc.NeedsBackfill(KindOrder) {
		t.Fatalf("fresh allocator must need backfill")
	}
	alloc.MarkBackfilled(KindOrder)
	if alloc.NeedsBackfill(KindOrder) {
		t.Fatalf("backfill must run once per kind per session")
	}
	if !alloc.NeedsBackfill(KindClient) {
		t.Fatalf("flags are per kind")
	}

	alloc.ResetBackfill()
	if !alloc.NeedsBackfill(KindOrder) {
		t.Fatalf("reset must re-arm backfill")
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		kind Kind
		id   int
		want string
	}{
		{KindClient, 7, "Client #007"},
		{KindProduct, 3, "Product #03"},
		{KindOrder, 42, "Order #0042"},
		{KindExpense, 42, "Expense #0042"},
		{KindOrder, 12345, "Order #12345"},
	}
	for _, tc := range cases {
		if got := Format(tc.kind, tc.id); got != tc.want {
			t.Fatalf("format(%s, %d): expected %q, got %q", tc.kind, tc.id, got, tc.want)
		}
	}
	if got := Format(KindClient, 0); got != "" {
		t.Fatalf("expected empty string for missing id, got %q", got)
	}
}
