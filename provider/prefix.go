package provider

import (
	"context"
	"time"
)

// Prefixed prepends a fixed prefix to every key before it reaches the inner provider.
// Clear is forwarded as-is; inner providers scope it themselves.
type Prefixed struct {
	inner  Provider
	prefix string
}

var (
	_ Provider = (*Prefixed)(nil)
	_ Batcher  = (*Prefixed)(nil)
)

// WithPrefix wraps p. An empty prefix returns p unchanged.
func WithPrefix(p Provider, prefix string) Provider {
	if prefix == "" {
		return p
	}
	return &Prefixed{inner: p, prefix: prefix}
}

// Unwrap returns the inner provider.
func (p *Prefixed) Unwrap() Provider { return p.inner }

func (p *Prefixed) k(key string) string { return p.prefix + key }

func (p *Prefixed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return p.inner.Get(ctx, p.k(key))
}

func (p *Prefixed) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return p.inner.Set(ctx, p.k(key), value, ttl)
}

func (p *Prefixed) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return p.inner.Add(ctx, p.k(key), value, ttl)
}

func (p *Prefixed) Del(ctx context.Context, key string) error { return p.inner.Del(ctx, p.k(key)) }
func (p *Prefixed) Clear(ctx context.Context) error          { return p.inner.Clear(ctx) }
func (p *Prefixed) Close(ctx context.Context) error          { return p.inner.Close(ctx) }

func (p *Prefixed) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	pk := make([]string, len(keys))
	for i, k := range keys {
		pk[i] = p.k(k)
	}
	got, err := GetMany(ctx, p.inner, pk)
	out := make(map[string][]byte, len(got))
	for i, k := range keys {
		if v, ok := got[pk[i]]; ok {
			out[k] = v
		}
	}
	return out, err
}

func (p *Prefixed) SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	pi := make(map[string][]byte, len(items))
	for k, v := range items {
		pi[p.k(k)] = v
	}
	return SetMany(ctx, p.inner, pi, ttl)
}

func (p *Prefixed) DelMany(ctx context.Context, keys []string) error {
	pk := make([]string, len(keys))
	for i, k := range keys {
		pk[i] = p.k(k)
	}
	return DelMany(ctx, p.inner, pk)
}
