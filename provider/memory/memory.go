// Package memory is an in-process provider backed by a map with per-entry expiry.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/memocache/provider"
)

type entry struct {
	value     []byte
	expiresAt time.Time // zero => never
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory keeps entries in-process.
// When Threshold > 0 the entry count is capped: expired entries are pruned first,
// then the ones closest to expiry (never-expiring entries go last).
type Memory struct {
	mu        sync.RWMutex
	entries   map[string]entry
	threshold int
	now       func() time.Time
}

var (
	_ pr.Provider = (*Memory)(nil)
	_ pr.Batcher  = (*Memory)(nil)
)

type Config struct {
	Threshold int // max entries; 0 = unlimited
}

func New(cfg Config) *Memory {
	return &Memory{
		entries:   make(map[string]entry),
		threshold: cfg.Threshold,
		now:       time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if e.expired(m.now()) {
		// expired - clean up lazily
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && cur.expired(m.now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	m.setLocked(key, value, ttl)
	m.mu.Unlock()
	return true, nil
}

func (m *Memory) Add(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok && !e.expired(m.now()) {
		return false, nil
	}
	m.setLocked(key, value, ttl)
	return true, nil
}

func (m *Memory) Del(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close(context.Context) error { return nil }

func (m *Memory) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok, _ := m.Get(ctx, k); ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *Memory) SetMany(_ context.Context, items map[string][]byte, ttl time.Duration) error {
	m.mu.Lock()
	for k, v := range items {
		m.setLocked(k, v, ttl)
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) DelMany(_ context.Context, keys []string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) setLocked(key string, value []byte, ttl time.Duration) {
	if _, exists := m.entries[key]; !exists && m.threshold > 0 && len(m.entries) >= m.threshold {
		m.pruneLocked()
	}
	var exp time.Time
	if ttl > 0 {
		exp = m.now().Add(ttl)
	}
	m.entries[key] = entry{value: append([]byte(nil), value...), expiresAt: exp}
}

// pruneLocked frees room for one more entry.
func (m *Memory) pruneLocked() {
	now := m.now()
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
	over := len(m.entries) - m.threshold + 1
	if over <= 0 {
		return
	}

	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := m.entries[keys[i]].expiresAt, m.entries[keys[j]].expiresAt
		switch {
		case a.IsZero():
			return false
		case b.IsZero():
			return true
		default:
			return a.Before(b)
		}
	})
	for _, k := range keys[:over] {
		delete(m.entries, k)
	}
}
