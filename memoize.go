package memocache

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/memocache/codec"
	"github.com/unkn0wn-root/memocache/internal/keyhash"
)

// Func is a memoizable computation. It receives the normalized arguments.
type Func[V any] func(ctx context.Context, b Bound) (V, error)

// MemoOptions tune one memoized computation. All fields are optional.
type MemoOptions[V any] struct {
	Signature Signature

	// Timeout is the TTL of cached results. 0 => Cache.DefaultTimeout; NoExpiry => never.
	Timeout time.Duration

	// NameTransform remaps the name hashed into keys. Version tokens stay keyed
	// by the original identity.
	NameTransform func(identity string) string

	// Bypass skips the cache entirely for the current call when it returns true.
	Bypass func(ctx context.Context) bool

	Codec codec.Codec[V] // nil => codec.JSON[V]
}

// registration is the type-independent part of a memoized computation.
type registration struct {
	c        *Cache
	sig      Signature
	identity string
	hashName string
}

// key derives the cache key of a bound call: fingerprint + version token.
func (r *registration) key(ctx context.Context, tuple []any) (string, error) {
	fp, err := keyhash.Fingerprint(r.hashName, tuple)
	if err != nil {
		return "", err
	}
	tok, created, err := r.c.versions.GetOrCreate(ctx, r.identity)
	if err != nil {
		return "", err
	}
	// the null kind accepts every Add and keeps nothing, so every token looks new
	if created && r.c.kind != "null" {
		r.c.hooks.VersionCreated(r.identity)
		r.c.log.Debug("version token created", Fields{"identity": r.identity})
	}
	return fp + tok.String(), nil
}

// Memoized wraps a computation with the cache. Obtain one with Memoize.
type Memoized[V any] struct {
	reg    registration
	fn     Func[V]
	ttl    time.Duration
	bypass func(context.Context) bool
	codec  codec.Codec[V]
}

// Memoize registers fn with c. The identity is resolved here, once.
func Memoize[V any](c *Cache, fn Func[V], opts MemoOptions[V]) (*Memoized[V], error) {
	if c == nil {
		return nil, usagef("Memoize: nil cache")
	}
	if fn == nil {
		return nil, usagef("Memoize: nil function")
	}
	sig, err := opts.Signature.resolve(fn)
	if err != nil {
		return nil, err
	}

	m := &Memoized[V]{
		reg: registration{
			c:        c,
			sig:      sig,
			identity: sig.identity(),
		},
		fn:     fn,
		ttl:    opts.Timeout,
		bypass: opts.Bypass,
		codec:  coalesce[codec.Codec[V]](opts.Codec, codec.JSON[V]{}),
	}
	m.reg.hashName = m.reg.identity
	if opts.NameTransform != nil {
		m.reg.hashName = opts.NameTransform(m.reg.identity)
	}
	return m, nil
}

// MustMemoize is like Memoize but panics on error.
// Handy for package-level variables.
func MustMemoize[V any](c *Cache, fn Func[V], opts MemoOptions[V]) *Memoized[V] {
	m, err := Memoize(c, fn, opts)
	if err != nil {
		panic(err)
	}
	return m
}

// Identity returns "<package>.<Owner>.<Name>" of the computation.
func (m *Memoized[V]) Identity() string { return m.reg.identity }

// Timeout returns the effective TTL of cached results; NoExpiry means never.
func (m *Memoized[V]) Timeout() time.Duration {
	if m.ttl == 0 {
		return m.reg.c.ttl
	}
	return m.ttl
}

// Call returns the cached result for args, computing and storing it on a miss.
// Only argument binding errors and the computation's own errors are returned;
// cache failures fall back to calling the computation directly.
func (m *Memoized[V]) Call(ctx context.Context, args Args) (V, error) {
	var zero V
	b, tuple, err := m.reg.sig.bind(args)
	if err != nil {
		return zero, err
	}
	c, id := m.reg.c, m.reg.identity

	if m.bypass != nil && m.bypass(ctx) {
		c.hooks.Bypass(id)
		return m.fn(ctx, b)
	}

	key, err := m.reg.key(ctx, tuple)
	if err != nil {
		c.storeError(id, "key", "", err)
		return m.fn(ctx, b)
	}

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.storeError(id, "get", key, err)
		return m.fn(ctx, b)
	}
	if ok {
		v, err := m.codec.Decode(raw)
		if err == nil {
			c.hooks.Hit(id)
			return v, nil
		}
		// self-heal
		_ = c.store.Del(ctx, key)
		c.hooks.SelfHeal(key, err)
		c.log.Debug("dropped undecodable entry", Fields{"identity": id, "key": key, "err": err})
	}

	c.hooks.Miss(id)
	v, err := m.fn(ctx, b)
	if err != nil {
		return v, err
	}
	m.put(ctx, key, v)
	return v, nil
}

// put stores v; failures are reported and otherwise ignored.
func (m *Memoized[V]) put(ctx context.Context, key string, v V) {
	c, id := m.reg.c, m.reg.identity
	payload, err := m.codec.Encode(v)
	if err != nil {
		c.storeError(id, "encode", key, err)
		return
	}
	ok, err := c.store.Set(ctx, key, payload, c.ttlFor(m.ttl))
	if err != nil {
		c.storeError(id, "set", key, err)
		return
	}
	if !ok {
		c.hooks.SetRejected(key)
		c.log.Debug("cache write rejected by provider (pressure)", Fields{"identity": id, "key": key})
	}
}

// Uncached calls the computation directly with the normalized arguments.
func (m *Memoized[V]) Uncached(ctx context.Context, args Args) (V, error) {
	b, _, err := m.reg.sig.bind(args)
	if err != nil {
		var zero V
		return zero, err
	}
	return m.fn(ctx, b)
}

// Key returns the cache key Call would use for args. It creates the version
// token when absent, like Call does.
func (m *Memoized[V]) Key(ctx context.Context, args Args) (string, error) {
	_, tuple, err := m.reg.sig.bind(args)
	if err != nil {
		return "", err
	}
	key, err := m.reg.key(ctx, tuple)
	if err != nil {
		return "", fmt.Errorf("memocache: derive key for %s: %w", m.reg.identity, err)
	}
	return key, nil
}

func (m *Memoized[V]) registration() *registration {
	if m == nil {
		return nil
	}
	return &m.reg
}

// InvalidateAll orphans every cached result of m by bumping its version token.
func (m *Memoized[V]) InvalidateAll(ctx context.Context) error {
	if m == nil {
		return usagef("InvalidateAll: nil memoized function")
	}
	return m.reg.c.InvalidateAll(ctx, m)
}

// InvalidateOne drops the entry for one argument set.
func (m *Memoized[V]) InvalidateOne(ctx context.Context, args Args) error {
	if m == nil {
		return usagef("InvalidateOne: nil memoized function")
	}
	return m.reg.c.InvalidateOne(ctx, m, args)
}

// DeleteVersion removes m's version token; the next call creates a fresh one.
func (m *Memoized[V]) DeleteVersion(ctx context.Context) error {
	if m == nil {
		return usagef("DeleteVersion: nil memoized function")
	}
	return m.reg.c.DeleteVersion(ctx, m)
}
