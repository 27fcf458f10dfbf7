package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*Redis, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedis(rdb, "test"), mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestRedisRoundTripWithoutExpiry(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "sidebarCollapsed", "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := store.Get(ctx, "sidebarCollapsed")
	if err != nil || !ok || v != "true" {
		t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
	}
	if ttl := mr.TTL("test:pref:sidebarCollapsed"); ttl != 0 {
		t.Fatalf("expected no expiry, got %v", ttl)
	}
}

func TestRedisMissingKey(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()

	_, ok, err := store.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected missing key")
	}
}

func TestRedisDelete(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	_ = store.Set(ctx, "k", "v")
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("expected key removed")
	}
}

func TestRedisUnavailableWrapsSentinel(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	mr.Close()

	_, _, err := store.Get(context.Background(), "k")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
