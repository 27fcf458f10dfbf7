package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goPortal/kv"
)

func testRecord() *Record {
	return &Record{
		Identity: "guru@ulilamwal.sch.id",
		Role:     RoleTeacher,
		IssuedAt: time.Date(2024, 7, 15, 8, 30, 0, 0, time.UTC),
	}
}

func TestStorePutGetClear(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kv.NewMemory(), "")

	if got, err := store.Get(ctx); err != nil || got != nil {
		t.Fatalf("expected empty store, got %+v err=%v", got, err)
	}

	want := testRecord()
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Identity != want.Identity || got.Role != want.Role || !got.IssuedAt.Equal(want.IssuedAt) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ := store.Get(ctx); got != nil {
		t.Fatalf("expected cleared store, got %+v", got)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestStoreWireShape(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	store := NewStore(backend, "")
	_ = store.Put(ctx, testRecord())

	raw, ok, _ := backend.Get(ctx, DefaultKey)
	if !ok {
		t.Fatal("expected record under default key")
	}
	for _, field := range []string{`"email":"guru@ulilamwal.sch.id"`, `"role":"teacher"`, `"loginTime":"2024-07-15T08:30:00Z"`} {
		if !strings.Contains(raw, field) {
			t.Fatalf("expected %s in %s", field, raw)
		}
	}
}

func TestStoreRejectsUnknownRole(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	store := NewStore(backend, "")

	if err := store.Put(ctx, &Record{Identity: "x@y.z", Role: "janitor"}); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole on put, got %v", err)
	}

	_ = backend.Set(ctx, DefaultKey, `{"email":"x@y.z","role":"janitor"}`)
	if _, err := store.Get(ctx); !errors.Is(err, ErrRecordCorrupt) {
		t.Fatalf("expected ErrRecordCorrupt on get, got %v", err)
	}
}

func TestDecodeAcceptsLegacyRoleAliases(t *testing.T) {
	tests := []struct {
		raw  string
		want Role
	}{
		{`{"email":"a@b.c","role":"guru"}`, RoleTeacher},
		{`{"email":"a@b.c","role":"kepala-sekolah"}`, RoleHeadmaster},
		{`{"email":"a@b.c","role":"admin"}`, RoleAdmin},
	}
	for _, tt := range tests {
		r, err := Decode([]byte(tt.raw))
		if err != nil {
			t.Fatalf("decode %s: %v", tt.raw, err)
		}
		if r.Role != tt.want {
			t.Fatalf("decode %s: got role %q want %q", tt.raw, r.Role, tt.want)
		}
	}
}

func TestStoreContextsAreIndependent(t *testing.T) {
	ctx := context.Background()
	tabA := NewStore(kv.NewMemory(), "")
	tabB := NewStore(kv.NewMemory(), "")

	_ = tabA.Put(ctx, testRecord())
	if got, _ := tabB.Get(ctx); got != nil {
		t.Fatalf("expected independent context to be empty, got %+v", got)
	}
}
