package kv

import (
	"context"
	"testing"
)

func TestMemoryIndependentContexts(t *testing.T) {
	ctx := context.Background()
	a := NewMemory()
	b := NewMemory()

	if err := a.Set(ctx, "currentUser", "alice"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := b.Get(ctx, "currentUser"); ok {
		t.Fatal("expected second context to be empty")
	}
	if v, ok, _ := a.Get(ctx, "currentUser"); !ok || v != "alice" {
		t.Fatalf("expected alice, got %q ok=%v", v, ok)
	}
}

func TestMemoryEndClearsAndDropsWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Set(ctx, "k", "v")

	m.End()
	if m.Len() != 0 {
		t.Fatalf("expected empty store after End, got %d keys", m.Len())
	}

	_ = m.Set(ctx, "k", "again")
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("expected write after End to be dropped")
	}
}

func TestMemoryDeleteMissingKey(t *testing.T) {
	m := NewMemory()
	if err := m.Delete(context.Background(), "absent"); err != nil {
		t.Fatalf("delete missing key: %v", err)
	}
}
