package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goPortal/kv"
)

// preferences hands out the durable store of one browser. Layout
// preferences outlive browsing contexts, so they are keyed by the device
// cookie rather than the context.
type preferences interface {
	For(device string) kv.Store
	Close() error
}

func openPreferences(ctx context.Context, cfg hostConfig) (preferences, error) {
	switch cfg.Store {
	case storeMemory:
		return &memoryPreferences{stores: make(map[string]*kv.Memory)}, nil
	case storeMiniredis:
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		return &redisPreferences{client: client, prefix: cfg.RedisPrefix, embedded: mr}, nil
	case storeRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return &redisPreferences{client: client, prefix: cfg.RedisPrefix}, nil
	case storeSQLite:
		db, err := kv.OpenSQLite(ctx, cfg.SQLitePath, "")
		if err != nil {
			return nil, err
		}
		return &sqlitePreferences{db: db}, nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

type memoryPreferences struct {
	mu     sync.Mutex
	stores map[string]*kv.Memory
}

func (p *memoryPreferences) For(device string) kv.Store {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stores[device]
	if !ok {
		s = kv.NewMemory()
		p.stores[device] = s
	}
	return s
}

func (p *memoryPreferences) Close() error { return nil }

type redisPreferences struct {
	client   redis.UniversalClient
	prefix   string
	embedded *miniredis.Miniredis
}

func (p *redisPreferences) For(device string) kv.Store {
	return kv.NewRedis(p.client, p.prefix+":"+device)
}

func (p *redisPreferences) Close() error {
	err := p.client.Close()
	if p.embedded != nil {
		p.embedded.Close()
	}
	return err
}

type sqlitePreferences struct {
	db *kv.SQLite
}

func (p *sqlitePreferences) For(device string) kv.Store {
	return p.db.WithOrigin(device)
}

func (p *sqlitePreferences) Close() error { return p.db.Close() }
