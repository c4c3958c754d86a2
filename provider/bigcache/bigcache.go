package bigcache

import (
	"context"
	"errors"
	"sync"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/memocache/internal/wire"
	pr "github.com/unkn0wn-root/memocache/provider"
)

// Provider stores values in BigCache. BigCache has no per-entry TTL (only the global
// LifeWindow), so each value is wrapped in an expiry frame and checked on read.
type Provider struct {
	c     *bc.BigCache
	addMu sync.Mutex
	now   func() time.Time
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	Shards             int
	LifeWindow         time.Duration // upper bound for any entry; 0 => 24h
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(cfg Config) (*Provider, error) {
	life := cfg.LifeWindow
	if life <= 0 {
		life = 24 * time.Hour
	}
	conf := bc.DefaultConfig(life)
	conf.Verbose = false
	if cfg.Shards > 0 {
		conf.Shards = cfg.Shards
	}
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.NewBigCache(conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c, now: time.Now}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	exp, payload, err := wire.DecodeEntry(b)
	if err != nil {
		// self-heal: drop unexpected entry shape
		_ = p.c.Delete(key)
		return nil, false, nil
	}
	if wire.Expired(exp, p.now()) {
		_ = p.c.Delete(key)
		return nil, false, nil
	}
	return payload, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := p.c.Set(key, wire.EncodeEntry(wire.ExpiresAt(p.now(), ttl), value)); err != nil {
		return false, err
	}
	return true, nil
}

// Add is check-then-set under a provider-local mutex; it is not atomic against Set.
func (p *Provider) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	p.addMu.Lock()
	defer p.addMu.Unlock()
	if _, ok, err := p.Get(ctx, key); err != nil || ok {
		return false, err
	}
	return p.Set(ctx, key, value, ttl)
}

func (p *Provider) Del(_ context.Context, key string) error {
	if err := p.c.Delete(key); err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
		return err
	}
	return nil
}

func (p *Provider) Clear(context.Context) error { return p.c.Reset() }

func (p *Provider) Close(_ context.Context) error {
	return p.c.Close()
}
