package ristretto

import (
	"context"
	"errors"
	"sync"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/memocache/provider"
)

// Provider stores values in Ristretto. Every entry costs 1, so MaxCost is the
// entry budget (the cache-wide threshold).
type Provider struct {
	c     *rc.Cache
	addMu sync.Mutex
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	NumCounters int64 // 0 => 10 * MaxCost
	MaxCost     int64
	BufferItems int64 // 0 => 64
	Metrics     bool
}

func New(cfg Config) (*Provider, error) {
	if cfg.MaxCost <= 0 {
		return nil, errors.New("ristretto: invalid config: MaxCost must be > 0")
	}
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = 10 * cfg.MaxCost
	}
	if cfg.BufferItems <= 0 {
		cfg.BufferItems = 64
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters:        cfg.NumCounters,
		MaxCost:            cfg.MaxCost,
		BufferItems:        cfg.BufferItems,
		Metrics:            cfg.Metrics,
		IgnoreInternalCost: true, // cost 1 per entry, no per-item overhead
	})
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// Set is buffered by Ristretto; a Get right after Set may still miss.
func (p *Provider) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	return p.c.SetWithTTL(key, value, 1, ttl), nil
}

// Add waits for the write buffer so the added value is visible to the next Get.
// Version tokens go through Add, and a lost token only costs a re-creation.
func (p *Provider) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	p.addMu.Lock()
	defer p.addMu.Unlock()
	if _, ok, _ := p.Get(ctx, key); ok {
		return false, nil
	}
	ok, err := p.Set(ctx, key, value, ttl)
	p.c.Wait()
	return ok, err
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

func (p *Provider) Clear(context.Context) error {
	p.c.Clear()
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Wait blocks until buffered writes are applied.
func (p *Provider) Wait() { p.c.Wait() }

// Helper to expose metrics if desired by the application (not part of provider.Provider).
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
