// Package kv is the small key-value store used for caches, per-user
// preferences and the seed-version marker.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("kv: key not found")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key. A zero ttl keeps it until deleted.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON decodes the value stored under key into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(raw), ttl)
}

type memoryItem struct {
	value     string
	expiresAt time.Time
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[key]
	if !ok || (!item.expiresAt.IsZero() && !m.now().Before(item.expiresAt)) {
		return "", ErrMiss
	}
	return item.value, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := memoryItem{value: value}
	if ttl > 0 {
		item.expiresAt = m.now().Add(ttl)
	}
	m.items[key] = item
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
