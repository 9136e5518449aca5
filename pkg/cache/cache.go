// Package cache provides the byte cache used for news-source snapshots
// and for generation results orphaned by interrupts.
package cache

import (
	"context"
	"sync"

	"staticnews/pkg/store"
)

// Cacher defines the caching interface.
type Cacher interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	SetCache(ctx context.Context, key string, val []byte) error
}

// Memory is an in-process Cacher for tests and headless runs.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

func (m *Memory) GetCache(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.entries[key]
	return val, ok
}

func (m *Memory) SetCache(_ context.Context, key string, val []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(val))
	copy(cp, val)
	m.entries[key] = cp
	return nil
}

// SQLite delegates to the store's cache table, surviving restarts.
type SQLite struct {
	store store.CacheStore
}

// NewSQLite creates a store-backed cache.
func NewSQLite(s store.CacheStore) *SQLite {
	return &SQLite{store: s}
}

func (c *SQLite) GetCache(ctx context.Context, key string) ([]byte, bool) {
	return c.store.GetCache(ctx, key)
}

func (c *SQLite) SetCache(ctx context.Context, key string, val []byte) error {
	return c.store.SetCache(ctx, key, val)
}
